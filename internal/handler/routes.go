package handler

import (
	"net/http"

	"github.com/msomdec/cinelist/internal/service"
)

// Services bundles what the routes depend on. Nil limiters and a nil Metrics
// disable the corresponding behaviour.
type Services struct {
	Auth        *service.AuthService
	Profile     *service.ProfileService
	Favorites   *service.FavoriteService
	Preferences *service.PreferencesService

	AuthLimiter   *service.TokenBucket
	UploadLimiter *service.TokenBucket

	CookieSecure bool

	HTTPMetrics *HTTPMetrics
	// MetricsHandler, when set, is served at /metrics on this mux.
	MetricsHandler http.Handler
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, s Services) {
	authHandler := NewAuthHandler(s.Auth, s.CookieSecure)
	profileHandler := NewProfileHandler(s.Profile, s.UploadLimiter)
	favoriteHandler := NewFavoriteHandler(s.Favorites)
	prefsHandler := NewPreferencesHandler(s.Preferences)

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, s.HTTPMetrics.Wrap(pattern, h))
	}
	limited := func(h http.HandlerFunc) http.Handler {
		if s.AuthLimiter == nil {
			return h
		}
		return RateLimit(s.AuthLimiter, h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(s.Auth, h)
	}

	handle("GET /healthz", http.HandlerFunc(HandleHealthz))
	if s.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.MetricsHandler)
	}

	// Auth
	handle("POST /api/auth/register", limited(authHandler.HandleRegister))
	handle("POST /api/auth/login", limited(authHandler.HandleLogin))
	handle("POST /api/auth/logout", http.HandlerFunc(authHandler.HandleLogout))
	handle("GET /api/auth/me", protected(authHandler.HandleMe))

	// Profile picture
	handle("POST /api/profile/picture", protected(profileHandler.HandleUpload))
	handle("POST /api/profile/picture/validate", protected(profileHandler.HandleValidate))
	handle("GET /api/profile/picture", protected(profileHandler.HandleGet))
	handle("POST /api/profile/picture/reoptimize", protected(profileHandler.HandleReoptimize))
	handle("DELETE /api/profile/picture", protected(profileHandler.HandleDelete))
	handle("GET /api/users/{id}/avatar", http.HandlerFunc(profileHandler.HandleAvatar))

	// Favorites
	handle("GET /api/favorites", protected(favoriteHandler.HandleList))
	handle("POST /api/favorites", protected(favoriteHandler.HandleAdd))
	handle("GET /api/favorites/{movieID}", protected(favoriteHandler.HandleStatus))
	handle("DELETE /api/favorites/{movieID}", protected(favoriteHandler.HandleRemove))
	handle("POST /api/favorites/{movieID}/toggle", protected(favoriteHandler.HandleToggle))

	// Preferences
	handle("GET /api/preferences", protected(prefsHandler.HandleGet))
	handle("PUT /api/preferences", protected(prefsHandler.HandleUpdate))
}
