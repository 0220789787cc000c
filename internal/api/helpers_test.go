package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/backend"
	"github.com/fridgesaver/fridgesaver/internal/database"
	"github.com/fridgesaver/fridgesaver/internal/metrics"
	"github.com/fridgesaver/fridgesaver/internal/models"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
	"github.com/fridgesaver/fridgesaver/internal/storage"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	result  []models.Ingredient
	err     error
	calls   int
	content []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, file workflow.Upload) ([]models.Ingredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	f.content = append(f.content, string(data))

	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Ingredient(nil), f.result...), nil
}

type failingSource struct {
	recipes.Source
}

func (failingSource) Search(ctx context.Context, req recipes.SearchRequest) ([]models.Recipe, error) {
	return nil, errors.New("backend unavailable")
}

func (failingSource) Popular(ctx context.Context) ([]models.Recipe, error) {
	return nil, errors.New("backend unavailable")
}

type fakeLookup struct{}

func (fakeLookup) Categories(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{"vegetables": {"番茄", "青椒"}}, nil
}

func (fakeLookup) SearchIngredients(ctx context.Context, query, category string) ([]backend.IngredientMatch, error) {
	return []backend.IngredientMatch{{Name: query + "醬", Category: "others"}}, nil
}

func (fakeLookup) ValidateIngredients(ctx context.Context, names []string) ([]backend.IngredientMatch, error) {
	valid, invalid := true, false
	out := make([]backend.IngredientMatch, 0, len(names))
	for _, n := range names {
		m := backend.IngredientMatch{Name: n, Valid: &valid}
		if n == "石頭" {
			m.Valid = &invalid
		}
		out = append(out, m)
	}
	return out, nil
}

func (fakeLookup) SuggestIngredients(ctx context.Context, names []string) ([]string, error) {
	return []string{"鹽", "胡椒"}, nil
}

func (fakeLookup) Nutrition(ctx context.Context, name string) (*backend.Nutrition, error) {
	if name == "石頭" {
		return nil, errors.New("unknown")
	}
	return &backend.Nutrition{Name: name, CaloriesPer100g: 18}, nil
}

type testServer struct {
	Server   *httptest.Server
	Client   *http.Client
	App      *App
	Analyzer *fakeAnalyzer
	Storage  *storage.LocalStorage
	Dir      string
}

type testOption func(*App)

func withSource(s recipes.Source) testOption {
	return func(app *App) { app.Recipes = s }
}

func withMaxUploadSize(n int64) testOption {
	return func(app *App) { app.MaxUploadSize = n }
}

func setupTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewLocalStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	db, err := database.NewDB(database.Config{SQLitePath: filepath.Join(dir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	analyzer := &fakeAnalyzer{result: []models.Ingredient{
		{ID: "1", Name: "番茄", Quantity: "2個"},
		{ID: "2", Name: "雞蛋"},
	}}
	m := metrics.New()
	logger := zap.NewNop()

	app := &App{
		Storage:  store,
		Recipes:  recipes.NewCatalog(db, logger),
		Lookup:   fakeLookup{},
		Sessions: NewSessionStore(time.Hour, NewControllerFactory(m.Analyzer(analyzer), m, logger), logger),
		Metrics:  m,
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(app)
	}
	require.NoError(t, app.LoadTemplates())
	t.Cleanup(app.Sessions.Close)

	srv := httptest.NewServer(NewRouter(app))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{
		Server:   srv,
		Client:   &http.Client{Jar: jar},
		App:      app,
		Analyzer: analyzer,
		Storage:  store,
		Dir:      filepath.Join(dir, "uploads"),
	}
}

type response struct {
	Status int
	Header http.Header
	Body   string
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) response {
	t.Helper()

	req, err := http.NewRequest(method, ts.Server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("HX-Request", "true")

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{Status: resp.StatusCode, Header: resp.Header, Body: string(data)}
}

func (ts *testServer) get(t *testing.T, path string) response {
	return ts.do(t, http.MethodGet, path, nil, "")
}

func (ts *testServer) post(t *testing.T, path string) response {
	return ts.do(t, http.MethodPost, path, nil, "")
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) response {
	return ts.do(t, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

type uploadFile struct {
	Name        string
	ContentType string
	Content     []byte
}

func (ts *testServer) upload(t *testing.T, files ...uploadFile) response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+f.Name+`"`)
		h.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return ts.do(t, http.MethodPost, "/upload/file", &buf, writer.FormDataContentType())
}

func pngFile(name string) uploadFile {
	return uploadFile{Name: name, ContentType: "image/png", Content: []byte("\x89PNG fake image data")}
}
