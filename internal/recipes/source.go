// Package recipes finds recipes for a confirmed ingredient list.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fridgesaver/fridgesaver/internal/models"
)

var ErrNotFound = errors.New("recipe not found")

// Source is where recipe suggestions come from: the backend service or the
// local catalog.
type Source interface {
	Search(ctx context.Context, req SearchRequest) ([]models.Recipe, error)
	Popular(ctx context.Context) ([]models.Recipe, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	SubmitFeedback(ctx context.Context, fb Feedback) error
}

type SearchRequest struct {
	Ingredients []string           `json:"ingredients" validate:"required,min=1,max=50,dive,max=100"`
	Preferences models.Preferences `json:"preferences"`
}

type Feedback struct {
	RecipeID string `json:"recipe_id" validate:"required"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Comment  string `json:"comment" validate:"max=1000"`
}

var validate = validator.New()

// Normalize trims the ingredient names and drops the blank ones.
func (r SearchRequest) Normalize() SearchRequest {
	cleaned := make([]string, 0, len(r.Ingredients))
	for _, name := range r.Ingredients {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	r.Ingredients = cleaned
	return r
}

func (r SearchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid search request: %w", err)
	}
	return nil
}

func (f Feedback) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid feedback: %w", err)
	}
	return nil
}

// MaxMinutes converts a cooking time preference ("15", "30", "60") to minutes.
// Zero means no limit.
func MaxMinutes(pref string) int {
	switch pref {
	case "15":
		return 15
	case "30":
		return 30
	case "60":
		return 60
	default:
		return 0
	}
}

// MarkAvailable flags the ingredients of r that appear in have and returns
// the share of them, as a percentage.
func MarkAvailable(r *models.Recipe, have []string) int {
	if len(r.Ingredients) == 0 {
		return 0
	}

	owned := make(map[string]struct{}, len(have))
	for _, name := range have {
		owned[strings.TrimSpace(name)] = struct{}{}
	}

	matched := 0
	for i := range r.Ingredients {
		_, ok := owned[r.Ingredients[i].Name]
		r.Ingredients[i].Available = ok
		if ok {
			matched++
		}
	}
	return matched * 100 / len(r.Ingredients)
}
