// Package workflow drives the upload page: choosing one image, sending it
// for ingredient recognition, editing the recognized list and handing the
// confirmed list to the recipe search view.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/ingredient"
	"github.com/fridgesaver/fridgesaver/internal/models"
)

// User-visible messages.
const (
	MsgRejectedFile   = "檔案太大或格式不正確，請選擇小於 10MB 的圖片 (jpg/png)。"
	MsgNoFile         = "請先上傳一張食材圖片。"
	MsgAnalyzed       = "食材分析完成！請確認結果。"
	MsgAnalyzeFailed  = "分析失敗，請稍後再試。"
	MsgAnalyzeBusy    = "食材分析進行中，請稍候。"
	MsgCleared        = "所有狀態已清除。"
	MsgNoIngredients  = "請先分析食材！"
	MsgNavigateFailed = "無法開啟食譜推薦，請稍後再試。"
)

// State is a read-only copy of the controller state for rendering.
type State struct {
	File        *FileInfo
	Ingredients []models.Ingredient
	IsAnalyzing bool
}

// FileInfo describes the selected file without exposing its content.
type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Controller owns the state of one upload page view. It is safe for
// concurrent use; the analysis call runs without holding the lock so that a
// second trigger is refused instead of queued.
type Controller struct {
	analyzer  Analyzer
	notifier  Notifier
	navigator Navigator
	logger    *zap.Logger

	mu          sync.Mutex
	file        *Upload
	ingredients *ingredient.List
	analyzing   bool
	// selection changes on every select or clear, so a late analysis
	// result for an image that is no longer selected can be dropped.
	selection uint64
	runs      uint64
}

func NewController(analyzer Analyzer, notifier Notifier, navigator Navigator, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		analyzer:    analyzer,
		notifier:    notifier,
		navigator:   navigator,
		logger:      logger,
		ingredients: &ingredient.List{},
	}
}

// SelectFile handles a file dropped or picked on the page. rejections are the
// reasons the input surface refused it, if any.
func (c *Controller) SelectFile(ctx context.Context, file Upload, rejections []Rejection) error {
	c.mu.Lock()
	c.releaseLocked()
	c.selection++

	if len(rejections) > 0 {
		c.mu.Unlock()
		if file.Release != nil {
			c.release(file)
		}
		c.logger.Info("file rejected",
			zap.String("filename", file.Filename),
			zap.Any("reasons", rejections),
		)
		c.notify(ctx, c.notifier.Error, MsgRejectedFile)
		return &RejectedInputError{Filename: file.Filename, Reasons: rejections}
	}

	f := file
	c.file = &f
	c.ingredients = &ingredient.List{}
	c.mu.Unlock()

	c.logger.Info("file selected",
		zap.String("filename", file.Filename),
		zap.String("content_type", file.ContentType),
		zap.Int64("size", file.Size),
	)
	c.notify(ctx, c.notifier.Success, fmt.Sprintf("圖片已載入: %s", file.Filename))
	return nil
}

// Analyze sends the selected file to the analyzer and replaces the
// ingredient list with the result. The list is cleared before the call, so a
// failed analysis leaves it empty rather than showing an older result.
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	if c.file == nil {
		c.mu.Unlock()
		c.notify(ctx, c.notifier.Error, MsgNoFile)
		return &ValidationError{Op: "analyze", Message: "no file selected"}
	}
	if c.analyzing {
		c.mu.Unlock()
		c.notify(ctx, c.notifier.Info, MsgAnalyzeBusy)
		return ErrAnalysisInProgress
	}

	file := *c.file
	selection := c.selection
	c.runs++
	run := c.runs
	c.ingredients = &ingredient.List{}
	c.analyzing = true
	c.mu.Unlock()

	c.logger.Info("analysis started", zap.String("filename", file.Filename))
	entries, err := c.analyzer.Analyze(ctx, file)

	c.mu.Lock()
	stale := selection != c.selection
	if run == c.runs {
		c.analyzing = false
	}
	if err == nil && !stale {
		c.ingredients = ingredient.FromAnalysis(entries)
	}
	c.mu.Unlock()

	if stale {
		c.logger.Info("analysis result dropped, selection changed", zap.String("filename", file.Filename))
		return nil
	}

	if err != nil {
		c.logger.Error("analysis failed", zap.String("filename", file.Filename), zap.Error(err))
		c.notify(ctx, c.notifier.Error, MsgAnalyzeFailed)
		return &TransportError{Op: "analyze", Err: err}
	}

	c.logger.Info("analysis completed",
		zap.String("filename", file.Filename),
		zap.Int("ingredients", len(entries)),
	)
	c.notify(ctx, c.notifier.Success, MsgAnalyzed)
	return nil
}

// Rename sets the name of one ingredient. Unknown IDs are ignored.
func (c *Controller) Rename(ctx context.Context, id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingredients.Rename(id, name)
}

// Requantify sets the quantity of one ingredient. Unknown IDs are ignored.
func (c *Controller) Requantify(ctx context.Context, id, quantity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingredients.Requantify(id, quantity)
}

// Delete removes one ingredient and tells the user which one.
func (c *Controller) Delete(ctx context.Context, id string) {
	c.mu.Lock()
	removed, ok := c.ingredients.Delete(id)
	c.mu.Unlock()

	if !ok {
		return
	}
	c.notify(ctx, c.notifier.Info, fmt.Sprintf("已移除食材: %s", removed.Name))
}

// ClearAll resets the page to its initial state.
func (c *Controller) ClearAll(ctx context.Context) {
	c.mu.Lock()
	c.releaseLocked()
	c.selection++
	c.ingredients = &ingredient.List{}
	c.analyzing = false
	c.mu.Unlock()

	c.notify(ctx, c.notifier.Info, MsgCleared)
}

// Confirm hands the current ingredient names to the recipe search view.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	names := c.ingredients.Names()
	c.mu.Unlock()

	if len(names) == 0 {
		c.notify(ctx, c.notifier.Error, MsgNoIngredients)
		return &ValidationError{Op: "confirm", Message: "no ingredients to confirm"}
	}

	t := Transition{Route: RouteRecipes, Handoff: RecipeHandoff{Ingredients: names}}
	if err := c.navigator.Navigate(ctx, t); err != nil {
		c.logger.Error("navigation failed", zap.String("route", t.Route), zap.Error(err))
		c.notify(ctx, c.notifier.Error, MsgNavigateFailed)
		return fmt.Errorf("navigating to %s: %w", t.Route, err)
	}

	c.logger.Info("ingredients confirmed", zap.Strings("ingredients", names))
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Ingredients: c.ingredients.Items(),
		IsAnalyzing: c.analyzing,
	}
	if s.Ingredients == nil {
		s.Ingredients = []models.Ingredient{}
	}
	if c.file != nil {
		s.File = &FileInfo{
			Filename:    c.file.Filename,
			ContentType: c.file.ContentType,
			Size:        c.file.Size,
		}
	}
	return s
}

// Close releases the selected file. Called when the page session ends.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

func (c *Controller) releaseLocked() {
	if c.file == nil {
		return
	}
	c.release(*c.file)
	c.file = nil
}

func (c *Controller) release(f Upload) {
	if f.Release == nil {
		return
	}
	if err := f.Release(); err != nil {
		c.logger.Warn("failed to release file", zap.String("filename", f.Filename), zap.Error(err))
	}
}

func (c *Controller) notify(ctx context.Context, fn func(context.Context, string) error, message string) {
	if err := fn(ctx, message); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("notification failed", zap.String("message", message), zap.Error(err))
	}
}
