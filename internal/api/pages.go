package api

import (
	"net/http"
)

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type staticPage struct {
	Title string
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	app.renderPage(w, "home.html", staticPage{Title: "FridgeSaver"})
}

func (app *App) PrivacyHandler(w http.ResponseWriter, r *http.Request) {
	app.renderPage(w, "privacy.html", staticPage{Title: "隱私權政策"})
}

func (app *App) TermsHandler(w http.ResponseWriter, r *http.Request) {
	app.renderPage(w, "terms.html", staticPage{Title: "使用條款"})
}

func (app *App) SafetyHandler(w http.ResponseWriter, r *http.Request) {
	app.renderPage(w, "safety.html", staticPage{Title: "食品安全"})
}
