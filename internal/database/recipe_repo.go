package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fridgesaver/fridgesaver/internal/models"
)

var ErrNotFound = errors.New("record not found")

// RecipeFilter narrows List. Zero fields are ignored.
type RecipeFilter struct {
	MaxMinutes int
	Difficulty string
	Cuisine    string
}

type RecipeRepository struct {
	db *DB
}

func NewRecipeRepository(db *DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `id, name, description, cooking_time, difficulty, cuisine, rating`

// List returns the recipes matching filter, ordered by id, with their
// ingredients and steps loaded.
func (r *RecipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error) {
	var (
		where []string
		args  []any
	)
	if filter.MaxMinutes > 0 {
		where = append(where, "cooking_minutes <= ?")
		args = append(args, filter.MaxMinutes)
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	if filter.Cuisine != "" {
		where = append(where, "cuisine = ?")
		args = append(args, filter.Cuisine)
	}

	query := "SELECT " + recipeColumns + " FROM recipes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	recipes, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// Popular returns up to limit recipes, most popular first.
func (r *RecipeRepository) Popular(ctx context.Context, limit int) ([]models.Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipes ORDER BY popularity DESC, id LIMIT ?"
	recipes, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular recipes: %w", err)
	}
	return recipes, nil
}

func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipes WHERE id = ?"
	recipes, err := r.query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	return &recipes[0], nil
}

func (r *RecipeRepository) query(ctx context.Context, query string, args ...any) ([]models.Recipe, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var recipes []models.Recipe
	for rows.Next() {
		var rec models.Recipe
		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Description,
			&rec.CookingTime,
			&rec.Difficulty,
			&rec.Cuisine,
			&rec.Rating,
		); err != nil {
			rows.Close()
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// the pool holds a single connection, so rows must be closed before
	// the detail queries run
	rows.Close()

	for i := range recipes {
		if err := r.loadDetails(ctx, &recipes[i]); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

func (r *RecipeRepository) loadDetails(ctx context.Context, rec *models.Recipe) error {
	ingredients, err := r.db.conn.QueryContext(ctx,
		"SELECT name, amount, substitute FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position",
		rec.ID,
	)
	if err != nil {
		return err
	}
	rec.Ingredients = []models.RecipeIngredient{}
	for ingredients.Next() {
		var ing models.RecipeIngredient
		if err := ingredients.Scan(&ing.Name, &ing.Amount, &ing.Substitute); err != nil {
			ingredients.Close()
			return err
		}
		rec.Ingredients = append(rec.Ingredients, ing)
	}
	if err := closeRows(ingredients); err != nil {
		return err
	}

	steps, err := r.db.conn.QueryContext(ctx,
		"SELECT body FROM recipe_steps WHERE recipe_id = ? ORDER BY position",
		rec.ID,
	)
	if err != nil {
		return err
	}
	rec.Steps = []string{}
	for steps.Next() {
		var body string
		if err := steps.Scan(&body); err != nil {
			steps.Close()
			return err
		}
		rec.Steps = append(rec.Steps, body)
	}
	return closeRows(steps)
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}
