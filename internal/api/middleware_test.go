package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_authMiddleware(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		app := newTestApp(t)

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler to not be called")
		})

		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected 401 without session cookie")
	})

	t.Run("invalid token", func(t *testing.T) {
		app := newTestApp(t)

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler to not be called")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: "garbage"})

		rr := httptest.NewRecorder()
		handler(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected 401 for invalid token")
	})

	t.Run("valid token populates context", func(t *testing.T) {
		app := newTestApp(t)

		token, err := app.createJwtForSession(types.User{Id: 7, Role: types.RoleAdmin}, time.Hour)
		require.NoError(t, err, "expected no error creating token")

		called := false
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			called = true
			userId, ok := UserId(r.Context())
			assert.True(t, ok, "expected user id in context")
			assert.Equal(t, 7, userId, "expected user id to match token")
			role, ok := RoleFromContext(r.Context())
			assert.True(t, ok, "expected role in context")
			assert.Equal(t, types.RoleAdmin, role, "expected role to match token")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})

		rr := httptest.NewRecorder()
		handler(rr, req)
		assert.True(t, called, "expected handler to be called")
		assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store", "expected session responses to not be cached")
	})
}

func Test_requireAdmin(t *testing.T) {
	t.Run("bidder is forbidden", func(t *testing.T) {
		app := newTestApp(t)

		handler := app.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler to not be called")
		})

		req := httptest.NewRequest(http.MethodPost, "/api/bids/approve", nil)
		req = req.WithContext(WithRole(WithUserId(req.Context(), 1), types.RoleBidder))

		rr := httptest.NewRecorder()
		handler(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code, "expected 403 for non-admin")
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		app := newTestApp(t)

		handler := app.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected handler to not be called")
		})

		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodPost, "/api/bids/approve", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code, "expected 403 without role")
	})

	t.Run("admin passes through", func(t *testing.T) {
		app := newTestApp(t)

		called := false
		handler := app.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		req := httptest.NewRequest(http.MethodPost, "/api/bids/approve", nil)
		req = req.WithContext(WithRole(WithUserId(req.Context(), 1), types.RoleAdmin))

		rr := httptest.NewRecorder()
		handler(rr, req)
		assert.True(t, called, "expected handler to be called for admin")
	})
}

func Test_errorHandler(t *testing.T) {
	app := newTestApp(t)

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected 500 for panicking handler")
}
