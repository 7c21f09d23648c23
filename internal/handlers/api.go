// Package handlers implements the drinks HTTP endpoints and the JSON envelopes
// they answer with.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

// Permissions checked by the protected drink routes.
const (
	PermissionReadDetails = "get:drinks-detail"
	PermissionCreate      = "post:drinks"
	PermissionUpdate      = "patch:drinks"
	PermissionDelete      = "delete:drinks"
)

// DrinkStore is the persistence surface the drinks endpoints need.
type DrinkStore interface {
	All(ctx context.Context) ([]models.Drink, error)
	ByID(ctx context.Context, id uint) (*models.Drink, error)
	Insert(ctx context.Context, drink *models.Drink) error
	Update(ctx context.Context, drink *models.Drink) error
	Delete(ctx context.Context, drink *models.Drink) error
}

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// API holds the dependencies shared by the drinks handlers.
type API struct {
	drinks   DrinkStore
	verifier TokenVerifier
}

// NewAPI wires the handlers to a store and a token verifier. A nil verifier
// makes every protected route answer 503.
func NewAPI(drinks DrinkStore, verifier TokenVerifier) *API {
	return &API{drinks: drinks, verifier: verifier}
}

// RequirePermission only lets the request through when it carries a valid
// bearer token granting permission. The verified claims are stored on the
// request context.
func (a *API) RequirePermission(permission string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			a.rejectAuth(w, r, permission, err)
			return
		}
		if a.verifier == nil {
			applog.Error(ctx, "token verifier not configured", "permission", permission)
			writeStatus(w, r, http.StatusServiceUnavailable)
			return
		}

		claims, err := a.verifier.Verify(ctx, token)
		if err != nil {
			a.rejectAuth(w, r, permission, err)
			return
		}
		if err := auth.Require(claims, permission); err != nil {
			a.rejectAuth(w, r, permission, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(ctx, claims)))
	})
}

func (a *API) rejectAuth(w http.ResponseWriter, r *http.Request, permission string, err error) {
	authErr, ok := auth.AsAuthError(err)
	if !ok {
		applog.Error(r.Context(), "unexpected token verification failure", "error", err)
		writeStatus(w, r, http.StatusUnauthorized)
		return
	}
	applog.Debug(r.Context(), "request rejected",
		"permission", permission,
		"kind", authErr.Kind,
		"status", authErr.Status,
	)
	writeJSONError(w, r, authErr.Status, authErr.Description)
}

// storageFailure maps a repository error onto the response envelope.
func storageFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeStatus(w, r, http.StatusNotFound)
	case errors.Is(err, db.ErrUnavailable):
		applog.Error(r.Context(), "database unavailable", "op", op, "error", err)
		writeStatus(w, r, http.StatusServiceUnavailable)
	default:
		applog.Error(r.Context(), "drink storage failed", "op", op, "error", err)
		writeStatus(w, r, http.StatusUnprocessableEntity)
	}
}
