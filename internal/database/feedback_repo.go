package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeedbackRecord is one stored rating of a recipe.
type FeedbackRecord struct {
	ID        string
	RecipeID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type FeedbackRepository struct {
	db *DB
}

func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores fb, filling in ID and CreatedAt when they are empty.
func (r *FeedbackRepository) Insert(ctx context.Context, fb *FeedbackRecord) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO recipe_feedback (id, recipe_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		fb.ID, fb.RecipeID, fb.Rating, fb.Comment, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListByRecipe returns the feedback for one recipe, newest first.
func (r *FeedbackRepository) ListByRecipe(ctx context.Context, recipeID string) ([]FeedbackRecord, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, recipe_id, rating, comment, created_at FROM recipe_feedback
		WHERE recipe_id = ? ORDER BY created_at DESC, id`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var records []FeedbackRecord
	for rows.Next() {
		var fb FeedbackRecord
		if err := rows.Scan(&fb.ID, &fb.RecipeID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		records = append(records, fb)
	}
	return records, rows.Err()
}

// Summary returns the number of ratings and their average for one recipe.
func (r *FeedbackRepository) Summary(ctx context.Context, recipeID string) (int, float64, error) {
	var (
		count int
		avg   float64
	)
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM recipe_feedback WHERE recipe_id = ?`,
		recipeID,
	).Scan(&count, &avg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to summarize feedback: %w", err)
	}
	return count, avg, nil
}
