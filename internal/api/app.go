package api

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/backend"
	"github.com/fridgesaver/fridgesaver/internal/metrics"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
	"github.com/fridgesaver/fridgesaver/internal/storage"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

//go:embed templates/*.html templates/partials/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var pages = []string{
	"home.html",
	"upload.html",
	"recipes.html",
	"recipe.html",
	"privacy.html",
	"terms.html",
	"safety.html",
}

// IngredientLookup answers the ingredient reference queries shown next to
// the upload and recipe views.
type IngredientLookup interface {
	Categories(ctx context.Context) (map[string][]string, error)
	SearchIngredients(ctx context.Context, query, category string) ([]backend.IngredientMatch, error)
	ValidateIngredients(ctx context.Context, names []string) ([]backend.IngredientMatch, error)
	SuggestIngredients(ctx context.Context, names []string) ([]string, error)
	Nutrition(ctx context.Context, name string) (*backend.Nutrition, error)
}

type App struct {
	Storage       storage.Storage
	Recipes       recipes.Source
	Lookup        IngredientLookup
	Sessions      *SessionStore
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	MaxUploadSize int64

	pages    map[string]*template.Template
	partials *template.Template
}

// LoadTemplates parses the embedded page and partial templates.
func (app *App) LoadTemplates() error {
	funcs := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"formatSize": formatFileSize,
		"pathEscape": url.PathEscape,
	}

	partials, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/partials/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse partials: %w", err)
	}

	app.pages = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFiles,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/"+page,
		)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", page, err)
		}
		app.pages[page] = tmpl
	}
	app.partials = partials
	return nil
}

func (app *App) staticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static", http.FileServer(http.FS(sub)))
}

// NewControllerFactory returns the factory the session store uses to build
// each page's upload controller.
func NewControllerFactory(analyzer workflow.Analyzer, m *metrics.Metrics, logger *zap.Logger) ControllerFactory {
	return func(sessionID string, notifier workflow.Notifier, navigator workflow.Navigator) *workflow.Controller {
		if m != nil {
			notifier = m.Notifier(notifier)
		}
		return workflow.NewController(analyzer, notifier, navigator, logger.With(zap.String("session_id", sessionID)))
	}
}

func (app *App) renderPage(w http.ResponseWriter, page string, data any) {
	tmpl, ok := app.pages[page]
	if !ok {
		http.Error(w, "Error loading template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		app.Logger.Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

func (app *App) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := app.partials.ExecuteTemplate(w, name, data); err != nil {
		app.Logger.Error("failed to render partial", zap.String("partial", name), zap.Error(err))
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

func (app *App) renderError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, `<div class="alert alert-error">%s</div>`, template.HTMLEscapeString(message))
}

func (app *App) renderSuccess(w http.ResponseWriter, message string) {
	fmt.Fprintf(w, `<div class="alert alert-success">%s</div>`, template.HTMLEscapeString(message))
}

func formatFileSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(MB))
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(KB))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
