package recipes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/database"
	"github.com/fridgesaver/fridgesaver/internal/models"
)

const popularLimit = 6

// priorWeight is how many ratings the seeded rating counts for when it is
// blended with submitted feedback.
const priorWeight = 10

// Catalog serves recipes from the local database. It stands in for the
// backend when RECIPE_SOURCE=stub.
type Catalog struct {
	recipes  *database.RecipeRepository
	feedback *database.FeedbackRepository
	logger   *zap.Logger
}

var _ Source = (*Catalog)(nil)

func NewCatalog(db *database.DB, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		recipes:  database.NewRecipeRepository(db),
		feedback: database.NewFeedbackRepository(db),
		logger:   logger,
	}
}

// Search ranks the recipes by the share of their ingredients in req.
// Recipes sharing no ingredient are left out.
func (c *Catalog) Search(ctx context.Context, req SearchRequest) ([]models.Recipe, error) {
	req = req.Normalize()
	if len(req.Ingredients) == 0 {
		return []models.Recipe{}, nil
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidates, err := c.recipes.List(ctx, database.RecipeFilter{
		MaxMinutes: MaxMinutes(req.Preferences.CookingTime),
		Difficulty: req.Preferences.Difficulty,
		Cuisine:    req.Preferences.Cuisine,
	})
	if err != nil {
		return nil, err
	}

	results := make([]models.Recipe, 0, len(candidates))
	for _, r := range candidates {
		r.MatchPercentage = MarkAvailable(&r, req.Ingredients)
		if r.MatchPercentage == 0 {
			continue
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchPercentage > results[j].MatchPercentage
	})

	c.logger.Debug("catalog search",
		zap.Strings("ingredients", req.Ingredients),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func (c *Catalog) Popular(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := c.recipes.Popular(ctx, popularLimit)
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return recipes, nil
}

// Get returns one recipe. Its rating includes the feedback submitted so far.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Recipe, error) {
	r, err := c.recipes.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	count, avg, err := c.feedback.Summary(ctx, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		blended := (r.Rating*priorWeight + avg*float64(count)) / float64(priorWeight+count)
		r.Rating = math.Round(blended*10) / 10
	}
	return r, nil
}

func (c *Catalog) SubmitFeedback(ctx context.Context, fb Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}
	if _, err := c.recipes.GetByID(ctx, fb.RecipeID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%s: %w", fb.RecipeID, ErrNotFound)
		}
		return err
	}

	record := &database.FeedbackRecord{
		RecipeID: fb.RecipeID,
		Rating:   fb.Rating,
		Comment:  fb.Comment,
	}
	if err := c.feedback.Insert(ctx, record); err != nil {
		return err
	}

	c.logger.Info("feedback stored",
		zap.String("recipe_id", fb.RecipeID),
		zap.Int("rating", fb.Rating),
	)
	return nil
}
