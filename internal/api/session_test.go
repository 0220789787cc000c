package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*SessionStore, *clock) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewSessionStore(ttl, func(id string, n workflow.Notifier, nav workflow.Navigator) *workflow.Controller {
		return workflow.NewController(nil, n, nav, nil)
	}, nil)
	store.now = c.now
	return store, c
}

func TestSessionStore_GetExtendsLifetime(t *testing.T) {
	store, c := newTestStore(time.Minute)
	sess := store.New()

	c.t = c.t.Add(50 * time.Second)
	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	c.t = c.t.Add(50 * time.Second)
	_, ok = store.Get(sess.ID)
	assert.True(t, ok)

	c.t = c.t.Add(2 * time.Minute)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)
}

func TestSessionStore_CleanupReleasesFiles(t *testing.T) {
	store, c := newTestStore(time.Minute)
	sess := store.New()
	keep := store.New()

	released := 0
	err := sess.Controller.SelectFile(context.Background(), workflow.Upload{
		Filename:    "a.png",
		ContentType: "image/png",
		Size:        1,
		Release:     func() error { released++; return nil },
	}, nil)
	require.NoError(t, err)

	c.t = c.t.Add(30 * time.Second)
	store.Get(keep.ID)
	c.t = c.t.Add(45 * time.Second)

	assert.Equal(t, 1, store.CleanupExpired())
	assert.Equal(t, 1, released)
	assert.Equal(t, 1, store.Len())
	_, ok := store.Get(keep.ID)
	assert.True(t, ok)
}

func TestSessionStore_Reset(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	sess := store.New()
	sess.Flash.Info(context.Background(), "old")

	fresh := store.Reset(sess.ID)

	assert.Equal(t, sess.ID, fresh.ID)
	assert.NotSame(t, sess.Controller, fresh.Controller)
	assert.Empty(t, fresh.Flash.Drain())
	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestSessionStore_StartAndClose(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.New()
	store.Start(time.Millisecond)

	store.Close()
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_Middleware(t *testing.T) {
	store, _ := newTestStore(time.Minute)

	var seen *Session
	h := store.Middleware(httpHandlerFunc(func(ctx context.Context) { seen = sessionFrom(ctx) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/upload", nil))
	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.Equal(t, seen.ID, cookies[0].Value)

	first := seen
	req := httptest.NewRequest("GET", "/upload", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, first, seen)

	req = httptest.NewRequest("GET", "/upload", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "unknown"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotSame(t, first, seen)
}

func TestFlashNotifier_DrainKeepsOrder(t *testing.T) {
	n := &FlashNotifier{}
	ctx := context.Background()

	n.Success(ctx, "loaded")
	n.Error(ctx, "failed")
	n.Info(ctx, "removed")

	assert.Equal(t, []Notification{
		{Level: LevelSuccess, Message: "loaded"},
		{Level: LevelError, Message: "failed"},
		{Level: LevelInfo, Message: "removed"},
	}, n.Drain())
	assert.Empty(t, n.Drain())
}

func TestSessionNavigator(t *testing.T) {
	nav := &SessionNavigator{}
	handoff := workflow.RecipeHandoff{Ingredients: []string{"番茄"}}

	err := nav.Navigate(context.Background(), workflow.Transition{Route: workflow.RouteRecipes, Handoff: handoff})
	assert.ErrorIs(t, err, errNoResponse)

	rec := httptest.NewRecorder()
	ctx := withResponse(context.Background(), rec)
	err = nav.Navigate(ctx, workflow.Transition{Route: "/elsewhere"})
	assert.Error(t, err)

	_, ok := nav.Take()
	assert.False(t, ok)

	require.NoError(t, nav.Navigate(ctx, workflow.Transition{Route: workflow.RouteRecipes, Handoff: handoff}))
	assert.Equal(t, "/recipes", rec.Header().Get("HX-Redirect"))

	got, ok := nav.Take()
	require.True(t, ok)
	assert.Equal(t, handoff, got.Handoff)

	_, ok = nav.Take()
	assert.False(t, ok)
}

func httpHandlerFunc(fn func(ctx context.Context)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(r.Context())
	})
}
