package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/backend"
	"github.com/fridgesaver/fridgesaver/internal/models"
	"github.com/fridgesaver/fridgesaver/internal/recipes"
)

const msgSearchFailed = "搜尋食譜失敗"

type option struct {
	Value string
	Label string
}

var (
	cookingTimeOptions = []option{{"", "不限時間"}, {"15", "15分鐘內"}, {"30", "30分鐘內"}, {"60", "1小時內"}}
	difficultyOptions  = []option{{"", "不限難度"}, {"簡單", "簡單"}, {"中等", "中等"}, {"困難", "困難"}}
	cuisineOptions     = []option{{"", "不限菜系"}, {"中式", "中式"}, {"西式", "西式"}, {"日式", "日式"}, {"韓式", "韓式"}}
)

type recipeListData struct {
	Recipes     []models.Recipe
	Popular     bool
	SearchError string
}

type recipesPageData struct {
	Title       string
	Ingredients []string
	Preferences models.Preferences
	CookingTime []option
	Difficulty  []option
	Cuisine     []option
	Validation  []backend.IngredientMatch
	Suggestions []string
	List        recipeListData
}

// RecipesPageHandler shows recipes for the ingredients handed over by the
// upload page. Without a handoff it falls back to popular recipes.
func (app *App) RecipesPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	data := recipesPageData{
		Title:       "食譜推薦",
		CookingTime: cookingTimeOptions,
		Difficulty:  difficultyOptions,
		Cuisine:     cuisineOptions,
	}

	if t, ok := sess.Navigator.Take(); ok {
		data.Ingredients = t.Handoff.Ingredients
		data.List = app.search(ctx, data.Ingredients, models.Preferences{})
		data.Validation, data.Suggestions = app.lookupHandoff(ctx, data.Ingredients)
	} else {
		data.List = app.popular(ctx)
	}

	app.renderPage(w, "recipes.html", data)
}

// RecipeSearchHandler re-runs the search with the filter form. The
// ingredients travel in the form body.
func (app *App) RecipeSearchHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.renderError(w, "表單格式錯誤")
		return
	}

	prefs := models.Preferences{
		CookingTime: r.PostForm.Get("cooking_time"),
		Difficulty:  r.PostForm.Get("difficulty"),
		Cuisine:     r.PostForm.Get("cuisine"),
	}
	ingredients := r.PostForm["ingredient"]

	var list recipeListData
	if len(ingredients) == 0 {
		list = app.popular(r.Context())
	} else {
		list = app.search(r.Context(), ingredients, prefs)
	}
	app.renderPartial(w, "recipe-list", list)
}

func (app *App) search(ctx context.Context, ingredients []string, prefs models.Preferences) recipeListData {
	results, err := app.Recipes.Search(ctx, recipes.SearchRequest{Ingredients: ingredients, Preferences: prefs})
	if err != nil {
		app.Logger.Error("recipe search failed", zap.Strings("ingredients", ingredients), zap.Error(err))
		return recipeListData{Recipes: []models.Recipe{}, SearchError: msgSearchFailed}
	}
	return recipeListData{Recipes: results}
}

func (app *App) popular(ctx context.Context) recipeListData {
	results, err := app.Recipes.Popular(ctx)
	if err != nil {
		app.Logger.Error("failed to load popular recipes", zap.Error(err))
		return recipeListData{Recipes: []models.Recipe{}, Popular: true, SearchError: msgSearchFailed}
	}
	return recipeListData{Recipes: results, Popular: true}
}

// lookupHandoff fetches the validation flags and complementary ingredient
// suggestions. Both are optional, so failures are only logged.
func (app *App) lookupHandoff(ctx context.Context, ingredients []string) ([]backend.IngredientMatch, []string) {
	if app.Lookup == nil || len(ingredients) == 0 {
		return nil, nil
	}

	validation, err := app.Lookup.ValidateIngredients(ctx, ingredients)
	if err != nil {
		app.Logger.Warn("ingredient validation failed", zap.Error(err))
	}
	suggestions, err := app.Lookup.SuggestIngredients(ctx, ingredients)
	if err != nil {
		app.Logger.Warn("ingredient suggestions failed", zap.Error(err))
	}
	return validation, suggestions
}

type recipePageData struct {
	Title  string
	Recipe *models.Recipe
	Step   stepData
}

type stepData struct {
	RecipeID string
	Index    int
	Total    int
	Text     string
	Progress int
	HasPrev  bool
	Done     bool
}

func newStepData(r *models.Recipe, n int) stepData {
	c := recipes.NewStepCursor(r.Steps, n)
	return stepData{
		RecipeID: r.ID,
		Index:    c.Index(),
		Total:    c.Len(),
		Text:     c.Current(),
		Progress: c.Progress(),
		HasPrev:  c.HasPrev(),
		Done:     c.Done(),
	}
}

func (app *App) RecipePageHandler(w http.ResponseWriter, r *http.Request) {
	recipe, ok := app.loadRecipe(w, r)
	if !ok {
		return
	}

	app.renderPage(w, "recipe.html", recipePageData{
		Title:  recipe.Name,
		Recipe: recipe,
		Step:   newStepData(recipe, stepParam(r)),
	})
}

// RecipeStepHandler renders one step of the step viewer.
func (app *App) RecipeStepHandler(w http.ResponseWriter, r *http.Request) {
	recipe, ok := app.loadRecipe(w, r)
	if !ok {
		return
	}
	app.renderPartial(w, "step", newStepData(recipe, stepParam(r)))
}

func (app *App) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "id")
	rating, _ := strconv.Atoi(r.FormValue("rating"))
	if rating == 0 {
		app.renderError(w, "請選擇評分")
		return
	}

	fb := recipes.Feedback{
		RecipeID: recipeID,
		Rating:   rating,
		Comment:  strings.TrimSpace(r.FormValue("comment")),
	}
	if err := app.Recipes.SubmitFeedback(r.Context(), fb); err != nil {
		app.Logger.Warn("feedback rejected", zap.String("recipe_id", recipeID), zap.Error(err))
		if errors.Is(err, recipes.ErrNotFound) {
			app.renderError(w, "找不到這道食譜")
			return
		}
		app.renderError(w, "提交回饋失敗")
		return
	}

	app.renderSuccess(w, "感謝您的回饋！")
}

func (app *App) NutritionHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if app.Lookup == nil {
		app.renderError(w, "暫時無法取得營養資訊。")
		return
	}

	n, err := app.Lookup.Nutrition(r.Context(), name)
	if err != nil {
		app.Logger.Warn("nutrition lookup failed", zap.String("ingredient", name), zap.Error(err))
		app.renderError(w, "暫時無法取得營養資訊。")
		return
	}
	app.renderPartial(w, "nutrition", n)
}

func (app *App) loadRecipe(w http.ResponseWriter, r *http.Request) (*models.Recipe, bool) {
	id := chi.URLParam(r, "id")
	recipe, err := app.Recipes.Get(r.Context(), id)
	if errors.Is(err, recipes.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		app.Logger.Error("failed to load recipe", zap.String("recipe_id", id), zap.Error(err))
		http.Error(w, "載入食譜失敗", http.StatusBadGateway)
		return nil, false
	}
	return recipe, true
}

// stepParam reads ?step= as a one based step number.
func stepParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("step"))
	if err != nil {
		return 0
	}
	return n - 1
}
