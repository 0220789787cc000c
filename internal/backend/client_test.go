package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridgesaver/fridgesaver/internal/models"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/api/"}, nil)
}

func imageUpload(name, content string) workflow.Upload {
	return workflow.Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestClient_Analyze(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "fridge.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ingredients":[{"id":"1","name":"番茄","quantity":"2個"},{"name":"雞蛋"}],"success":true,"total_images":1}`)
	})

	got, err := client.Analyze(context.Background(), imageUpload("fridge.jpg", "jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []models.Ingredient{
		{ID: "1", Name: "番茄", Quantity: "2個"},
		{Name: "雞蛋"},
	}, got)
}

func TestClient_AnalyzeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom","success":false}`},
		{"bad request", http.StatusBadRequest, `{"error":"No image","success":false}`},
		{"malformed json", http.StatusOK, `{"ingredients":`},
		{"missing ingredients", http.StatusOK, `{"success":true}`},
		{"null ingredients", http.StatusOK, `{"ingredients":null}`},
		{"unsuccessful", http.StatusOK, `{"ingredients":[],"success":false,"error":"vision down"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Analyze(context.Background(), imageUpload("a.png", "x"))
			assert.Error(t, err)
		})
	}
}

func TestClient_AnalyzeEmptyListIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ingredients":[]}`)
	})

	got, err := client.Analyze(context.Background(), imageUpload("a.png", "x"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error":"upstream"}`)
	})

	_, err := client.Popular(context.Background())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream", statusErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	client := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)

	_, err := client.Health(context.Background())
	assert.Error(t, err)
}

func TestClient_BatchUpload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vision/batch-upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File["files"], 2)
		io.WriteString(w, `{"ingredients":[{"name":"牛奶"}],"success":true,"total_images":2}`)
	})

	resp, err := client.BatchUpload(context.Background(), []workflow.Upload{
		imageUpload("a.jpg", "a"),
		imageUpload("b.jpg", "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalImages)
	assert.Len(t, *resp.Ingredients, 1)

	_, err = client.BatchUpload(context.Background(), nil)
	assert.Error(t, err)
}

func TestClient_Search(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/search", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"recipes":[{"id":"1","name":"番茄炒蛋","match_percentage":80}],"success":true}`)
	})

	results, err := client.Search(context.Background(), recipes.SearchRequest{
		Ingredients: []string{"番茄", " ", "雞蛋"},
		Preferences: models.Preferences{Difficulty: "簡單"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 80, results[0].MatchPercentage)

	assert.Equal(t, []any{"番茄", "雞蛋"}, got["ingredients"])
	assert.Equal(t, map[string]any{"difficulty": "簡單"}, got["preferences"])
}

func TestClient_SearchOmitsEmptyPreferences(t *testing.T) {
	var raw string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		io.WriteString(w, `{"recipes":null,"success":true}`)
	})

	results, err := client.Search(context.Background(), recipes.SearchRequest{Ingredients: []string{"番茄"}})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.NotContains(t, raw, "preferences")
}

func TestClient_SearchBlankSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	results, err := client.Search(context.Background(), recipes.SearchRequest{Ingredients: []string{"  "}})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/recipes/1":
			io.WriteString(w, `{"recipe":{"id":"1","name":"番茄炒蛋","steps":["a","b"]},"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	})

	r, err := client.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Steps)

	_, err = client.Get(context.Background(), "9")
	assert.True(t, errors.Is(err, recipes.ErrNotFound))
}

func TestClient_SubmitFeedback(t *testing.T) {
	var got feedbackRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"success":true}`)
	})

	err := client.SubmitFeedback(context.Background(), recipes.Feedback{RecipeID: "1", Rating: 4, Comment: "好吃"})
	require.NoError(t, err)
	assert.Equal(t, feedbackRequest{RecipeID: "1", Rating: 4, Comment: "好吃"}, got)

	err = client.SubmitFeedback(context.Background(), recipes.Feedback{RecipeID: "1"})
	assert.Error(t, err)
}

func TestClient_IngredientLookups(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ingredients/categories":
			io.WriteString(w, `{"success":true,"categories":{"vegetables":["番茄","青椒"]}}`)
		case "/api/ingredients/search":
			assert.Equal(t, "番", r.URL.Query().Get("q"))
			assert.Equal(t, "vegetables", r.URL.Query().Get("category"))
			io.WriteString(w, `{"success":true,"ingredients":[{"name":"番茄","category":"vegetables"}]}`)
		case "/api/ingredients/validate":
			io.WriteString(w, `{"success":true,"ingredients":[{"name":"番茄","category":"vegetables","valid":true},{"name":"石頭","category":"others","valid":false}]}`)
		case "/api/ingredients/suggest":
			io.WriteString(w, `{"success":true,"suggestions":["鹽","胡椒"]}`)
		case "/api/ingredients/nutrition/番茄":
			io.WriteString(w, `{"success":true,"nutrition":{"name":"番茄","calories_per_100g":50,"vitamins":["維生素C"]}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	cats, err := client.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"番茄", "青椒"}, cats["vegetables"])

	matches, err := client.SearchIngredients(ctx, "番", "vegetables")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "番茄", matches[0].Name)

	validated, err := client.ValidateIngredients(ctx, []string{"番茄", "石頭"})
	require.NoError(t, err)
	require.Len(t, validated, 2)
	assert.True(t, *validated[0].Valid)
	assert.False(t, *validated[1].Valid)

	suggestions, err := client.SuggestIngredients(ctx, []string{"番茄"})
	require.NoError(t, err)
	assert.Equal(t, []string{"鹽", "胡椒"}, suggestions)

	n, err := client.Nutrition(ctx, "番茄")
	require.NoError(t, err)
	assert.Equal(t, 50.0, n.CaloriesPer100g)
}

func TestClient_Health(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		io.WriteString(w, `{"status":"ok","mock_mode":true}`)
	})

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.MockMode)
}
