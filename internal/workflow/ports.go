package workflow

import (
	"context"
	"io"

	"github.com/fridgesaver/fridgesaver/internal/models"
)

// Analyzer submits an image to the recognition service and returns the
// ingredients it found, in response order. IDs may be empty.
type Analyzer interface {
	Analyze(ctx context.Context, file Upload) ([]models.Ingredient, error)
}

// Notifier delivers transient, auto-dismissing messages to the user.
type Notifier interface {
	Success(ctx context.Context, message string) error
	Error(ctx context.Context, message string) error
	Info(ctx context.Context, message string) error
}

// Navigator moves the user to another view, carrying transition-scoped state.
type Navigator interface {
	Navigate(ctx context.Context, t Transition) error
}

// RouteRecipes is the recipe search view.
const RouteRecipes = "/recipes"

// RecipeHandoff is the state handed to the recipe search view. It is only
// visible to the destination and is never persisted or put in the URL.
type RecipeHandoff struct {
	Ingredients []string `json:"ingredients"`
}

// Transition is a navigation command with its payload.
type Transition struct {
	Route   string
	Handoff RecipeHandoff
}

// Upload is a file chosen on the drop/pick surface.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64

	// Open returns the file content; each call starts from the beginning.
	Open func() (io.ReadCloser, error)
	// Release, when set, is called once the file is no longer selected.
	Release func() error
}
