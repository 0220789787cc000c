package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)
	r.Handle("/static/*", app.staticHandler())
	if app.Metrics != nil {
		r.Handle("/metrics", app.Metrics.Handler())
	}

	r.Get("/", app.HomeHandler)
	r.Get("/privacy", app.PrivacyHandler)
	r.Get("/terms", app.TermsHandler)
	r.Get("/safety", app.SafetyHandler)

	r.Get("/ingredients/search", app.IngredientOptionsHandler)
	r.Get("/ingredients/categories", app.CategoriesHandler)
	r.Get("/ingredients/nutrition/{name}", app.NutritionHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.Sessions.Middleware)

		r.Get("/upload", app.UploadPageHandler)
		r.Post("/upload/file", app.UploadFileHandler)
		r.Post("/upload/analyze", app.AnalyzeHandler)
		r.Post("/upload/ingredients/{id}/name", app.RenameHandler)
		r.Post("/upload/ingredients/{id}/quantity", app.RequantifyHandler)
		r.Delete("/upload/ingredients/{id}", app.DeleteIngredientHandler)
		r.Post("/upload/clear", app.ClearHandler)
		r.Post("/upload/confirm", app.ConfirmHandler)

		r.Get("/recipes", app.RecipesPageHandler)
		r.Post("/recipes/search", app.RecipeSearchHandler)
	})

	r.Get("/recipe/{id}", app.RecipePageHandler)
	r.Get("/recipe/{id}/steps", app.RecipeStepHandler)
	r.Post("/recipe/{id}/feedback", app.FeedbackHandler)

	return r
}
