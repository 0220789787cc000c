package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/ingredient"
	"github.com/fridgesaver/fridgesaver/internal/storage"
	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

// multipartOverhead is allowed on top of the file size limit for the form
// boundaries and headers.
const multipartOverhead = 1 << 20

type workspaceData struct {
	State       workflow.State
	Alerts      []Notification
	Placeholder string
}

func (w workspaceData) CanAnalyze() bool {
	return w.State.File != nil && !w.State.IsAnalyzing
}

func (w workspaceData) CanConfirm() bool {
	return len(w.State.Ingredients) > 0 && !w.State.IsAnalyzing
}

func newWorkspace(sess *Session) workspaceData {
	return workspaceData{
		State:       sess.Controller.Snapshot(),
		Alerts:      sess.Flash.Drain(),
		Placeholder: ingredient.Placeholder,
	}
}

func (app *App) UploadPageHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if r.URL.Query().Get("fresh") == "1" {
		sess = app.Sessions.Reset(sess.ID)
	}

	app.renderPage(w, "upload.html", struct {
		Title     string
		MaxSize   string
		Workspace workspaceData
	}{
		Title:     "上傳食材",
		MaxSize:   formatFileSize(app.maxFileSize()),
		Workspace: newWorkspace(sess),
	})
}

// UploadFileHandler is the drop/pick surface. Whatever the outcome, it
// answers with the refreshed workspace.
func (app *App) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	ctx := r.Context()
	maxSize := app.maxFileSize()

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sess.Controller.SelectFile(ctx, workflow.Upload{}, []workflow.Rejection{workflow.RejectTooLarge})
		} else {
			app.Logger.Warn("failed to parse upload", zap.Error(err))
			sess.Flash.Error(ctx, workflow.MsgNoFile)
		}
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	switch {
	case len(headers) == 0:
		sess.Flash.Error(ctx, workflow.MsgNoFile)
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	case len(headers) > 1:
		sess.Controller.SelectFile(ctx, workflow.Upload{Filename: headers[0].Filename}, []workflow.Rejection{workflow.RejectTooMany})
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	}

	header := headers[0]
	contentType := workflow.NormalizeContentType(header.Filename, header.Header.Get("Content-Type"))
	candidate := workflow.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	}

	if rejections := workflow.CheckFile(header.Filename, contentType, header.Size, maxSize); len(rejections) > 0 {
		sess.Controller.SelectFile(ctx, candidate, rejections)
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	}

	file, err := header.Open()
	if err != nil {
		app.Logger.Error("failed to open upload", zap.Error(err))
		sess.Flash.Error(ctx, "讀取檔案失敗，請再試一次。")
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	}
	defer file.Close()

	name, err := app.Storage.SaveFile(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		app.Logger.Error("failed to save upload", zap.Error(err))
		sess.Flash.Error(ctx, "儲存檔案失敗，請再試一次。")
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	}

	candidate.Open = app.opener(name)
	candidate.Release = func() error { return app.Storage.DeleteFile(name) }
	sess.Controller.SelectFile(ctx, candidate, nil)

	app.renderPartial(w, "workspace", newWorkspace(sess))
}

func (app *App) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	if err := sess.Controller.Analyze(r.Context()); err != nil {
		app.Logger.Debug("analyze did not complete", zap.String("session_id", sess.ID), zap.Error(err))
	}
	app.renderPartial(w, "workspace", newWorkspace(sess))
}

// RenameHandler and RequantifyHandler update a row in place. The row input
// already shows the new value, so nothing is swapped.
func (app *App) RenameHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Controller.Rename(r.Context(), ingredientID(r), r.FormValue("name"))
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) RequantifyHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Controller.Requantify(r.Context(), ingredientID(r), r.FormValue("quantity"))
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) DeleteIngredientHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Controller.Delete(r.Context(), ingredientID(r))
	app.renderPartial(w, "workspace", newWorkspace(sess))
}

// ingredientID reads the {id} segment. Row ids are path escaped in the page,
// and chi routes on the raw path when the escaped form differs from the
// default one (an id holding "/" for instance), leaving the segment escaped.
func ingredientID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

func (app *App) ClearHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Controller.ClearAll(r.Context())
	app.renderPartial(w, "workspace", newWorkspace(sess))
}

// ConfirmHandler hands the list to the recipe view. On success the navigator
// has set HX-Redirect and the body is ignored by the browser.
func (app *App) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	ctx := withResponse(r.Context(), w)

	if err := sess.Controller.Confirm(ctx); err != nil {
		app.renderPartial(w, "workspace", newWorkspace(sess))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IngredientOptionsHandler fills the name suggestions list while a row is
// being renamed.
func (app *App) IngredientOptionsHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("name"))
	}
	if query == "" || app.Lookup == nil {
		app.renderPartial(w, "ingredient-options", nil)
		return
	}

	matches, err := app.Lookup.SearchIngredients(r.Context(), query, r.URL.Query().Get("category"))
	if err != nil {
		app.Logger.Warn("ingredient search failed", zap.String("query", query), zap.Error(err))
	}
	app.renderPartial(w, "ingredient-options", matches)
}

func (app *App) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if app.Lookup == nil {
		app.renderError(w, "暫時無法取得食材清單。")
		return
	}

	categories, err := app.Lookup.Categories(r.Context())
	if err != nil {
		app.Logger.Warn("failed to load categories", zap.Error(err))
		app.renderError(w, "暫時無法取得食材清單。")
		return
	}
	app.renderPartial(w, "categories", categories)
}

func (app *App) maxFileSize() int64 {
	if app.MaxUploadSize > 0 {
		return app.MaxUploadSize
	}
	return workflow.MaxFileSize
}

func (app *App) opener(name string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return app.Storage.OpenFile(name)
	}
}
