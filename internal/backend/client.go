// Package backend is the typed client for the FridgeSaver REST service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/models"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	// BaseURL includes the /api prefix, e.g. http://localhost:5000/api.
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ workflow.Analyzer = (*Client)(nil)
	_ recipes.Source    = (*Client)(nil)
)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Analyze uploads one image and returns the recognized ingredients.
func (c *Client) Analyze(ctx context.Context, upload workflow.Upload) ([]models.Ingredient, error) {
	resp, err := c.postFiles(ctx, "/analyze", "image", []workflow.Upload{upload})
	if err != nil {
		return nil, err
	}
	return *resp.Ingredients, nil
}

// BatchUpload sends several images in one request.
func (c *Client) BatchUpload(ctx context.Context, uploads []workflow.Upload) (*AnalyzeResponse, error) {
	if len(uploads) == 0 {
		return nil, errors.New("no files to upload")
	}
	return c.postFiles(ctx, "/vision/batch-upload", "files", uploads)
}

func (c *Client) postFiles(ctx context.Context, path, field string, uploads []workflow.Upload) (*AnalyzeResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, upload := range uploads {
		if err := writeFilePart(writer, field, upload); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp AnalyzeResponse
	if err := c.doRequest(req, &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("analysis unsuccessful: %s", resp.Error)
	}
	if resp.Ingredients == nil {
		return nil, errors.New("analysis response has no ingredients")
	}
	return &resp, nil
}

func writeFilePart(writer *multipart.Writer, field string, upload workflow.Upload) error {
	if upload.Open == nil {
		return fmt.Errorf("file %s has no content", upload.Filename)
	}
	src, err := upload.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", upload.Filename, err)
	}
	defer src.Close()

	part, err := writer.CreateFormFile(field, upload.Filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to copy %s: %w", upload.Filename, err)
	}
	return nil
}

// Search asks the backend for recipes using the given ingredients.
func (c *Client) Search(ctx context.Context, req recipes.SearchRequest) ([]models.Recipe, error) {
	req = req.Normalize()
	if len(req.Ingredients) == 0 {
		return []models.Recipe{}, nil
	}

	body := searchRequest{Ingredients: req.Ingredients}
	if !req.Preferences.IsZero() {
		prefs := req.Preferences
		body.Preferences = &prefs
	}

	var resp recipesResponse
	if err := c.post(ctx, "/recipes/search", body, &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("recipe search unsuccessful: %s", resp.Error)
	}
	if resp.Recipes == nil {
		resp.Recipes = []models.Recipe{}
	}
	return resp.Recipes, nil
}

func (c *Client) Popular(ctx context.Context) ([]models.Recipe, error) {
	var resp recipesResponse
	if err := c.get(ctx, "/recipes/popular", &resp); err != nil {
		return nil, err
	}
	if resp.Recipes == nil {
		resp.Recipes = []models.Recipe{}
	}
	return resp.Recipes, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Recipe, error) {
	var resp recipeResponse
	err := c.get(ctx, "/recipes/"+url.PathEscape(id), &resp)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", id, recipes.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if resp.Recipe == nil {
		return nil, fmt.Errorf("%s: %w", id, recipes.ErrNotFound)
	}
	return resp.Recipe, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, fb recipes.Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}

	var resp statusResponse
	body := feedbackRequest{RecipeID: fb.RecipeID, Rating: fb.Rating, Comment: fb.Comment}
	if err := c.post(ctx, "/recipes/feedback", body, &resp); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		return fmt.Errorf("feedback rejected: %s", resp.Error)
	}
	return nil
}

// Categories returns the known ingredient names grouped by category.
func (c *Client) Categories(ctx context.Context) (map[string][]string, error) {
	var resp categoriesResponse
	if err := c.get(ctx, "/ingredients/categories", &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// SearchIngredients looks up ingredient names containing query, optionally
// within one category.
func (c *Client) SearchIngredients(ctx context.Context, query, category string) ([]IngredientMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	if category != "" {
		params.Set("category", category)
	}

	var resp ingredientsResponse
	if err := c.get(ctx, "/ingredients/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Ingredients, nil
}

func (c *Client) ValidateIngredients(ctx context.Context, names []string) ([]IngredientMatch, error) {
	var resp ingredientsResponse
	if err := c.post(ctx, "/ingredients/validate", ingredientsRequest{Ingredients: names}, &resp); err != nil {
		return nil, err
	}
	return resp.Ingredients, nil
}

// SuggestIngredients returns ingredients that would round out names.
func (c *Client) SuggestIngredients(ctx context.Context, names []string) ([]string, error) {
	var resp suggestionsResponse
	if err := c.post(ctx, "/ingredients/suggest", ingredientsRequest{Ingredients: names}, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (c *Client) Nutrition(ctx context.Context, name string) (*Nutrition, error) {
	var resp nutritionResponse
	if err := c.get(ctx, "/ingredients/nutrition/"+url.PathEscape(name), &resp); err != nil {
		return nil, err
	}
	if resp.Nutrition == nil {
		return nil, fmt.Errorf("no nutrition data for %s", name)
	}
	return resp.Nutrition, nil
}

func (c *Client) Health(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.get(ctx, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, path string, response any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRequest(req, response)
}

func (c *Client) post(ctx context.Context, path string, body any, response any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, response)
}

func (c *Client) doRequest(req *http.Request, response any) error {
	c.logger.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		c.logger.Error("backend error response",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("error", eb.Error),
		)
		return &StatusError{StatusCode: resp.StatusCode, Message: eb.Error}
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
