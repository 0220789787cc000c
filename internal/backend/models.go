package backend

import (
	"fmt"

	"github.com/fridgesaver/fridgesaver/internal/models"
)

// AnalyzeResponse is the body returned by the analysis endpoints.
type AnalyzeResponse struct {
	Ingredients *[]models.Ingredient `json:"ingredients"`
	Success     *bool                `json:"success"`
	TotalImages int                  `json:"total_images"`
	Error       string               `json:"error,omitempty"`
}

type searchRequest struct {
	Ingredients []string            `json:"ingredients"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
}

type recipesResponse struct {
	Recipes []models.Recipe `json:"recipes"`
	Success *bool           `json:"success"`
	Error   string          `json:"error,omitempty"`
}

type recipeResponse struct {
	Recipe  *models.Recipe `json:"recipe"`
	Success *bool          `json:"success"`
	Error   string         `json:"error,omitempty"`
}

type feedbackRequest struct {
	RecipeID string `json:"recipe_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type ingredientsRequest struct {
	Ingredients []string `json:"ingredients"`
}

type statusResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error,omitempty"`
}

type categoriesResponse struct {
	Categories map[string][]string `json:"categories"`
}

type ingredientsResponse struct {
	Ingredients []IngredientMatch `json:"ingredients"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type nutritionResponse struct {
	Nutrition *Nutrition `json:"nutrition"`
}

// IngredientMatch is one result of an ingredient lookup or validation.
type IngredientMatch struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Valid    *bool  `json:"valid,omitempty"`
}

// Nutrition describes an ingredient per 100 g.
type Nutrition struct {
	Name            string   `json:"name"`
	CaloriesPer100g float64  `json:"calories_per_100g"`
	Protein         float64  `json:"protein"`
	Carbs           float64  `json:"carbs"`
	Fat             float64  `json:"fat"`
	Fiber           float64  `json:"fiber"`
	Vitamins        []string `json:"vitamins"`
	Minerals        []string `json:"minerals"`
}

// Status is the backend's self-reported health.
type Status struct {
	Status   string `json:"status"`
	MockMode bool   `json:"mock_mode"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.StatusCode, e.Message)
}

// errorBody picks the message out of an error response.
type errorBody struct {
	Error string `json:"error"`
}

// Unknown reports whether the backend flagged the name as unrecognized.
func (m IngredientMatch) Unknown() bool {
	return m.Valid != nil && !*m.Valid
}
