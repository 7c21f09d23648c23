package server

import (
	"context"
	"net/http"

	"coffeeshop/internal/handlers"
	applog "coffeeshop/internal/log"
)

func newRouter(api *handlers.API) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("GET /healthz", api.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")

	mux.HandleFunc("GET /drinks", api.ListDrinks)
	mux.Handle("POST /drinks", api.RequirePermission(handlers.PermissionCreate, api.CreateDrink))
	mux.Handle("/drinks", handlers.MethodNotAllowed("GET, POST"))
	applog.Debug(context.Background(), "route registered", "path", "/drinks")

	mux.Handle("GET /drinks-detail", api.RequirePermission(handlers.PermissionReadDetails, api.ListDrinkDetails))
	mux.Handle("/drinks-detail", handlers.MethodNotAllowed("GET"))
	applog.Debug(context.Background(), "route registered", "path", "/drinks-detail", "protected", true)

	mux.Handle("PATCH /drinks/{id}", api.RequirePermission(handlers.PermissionUpdate, api.UpdateDrink))
	mux.Handle("DELETE /drinks/{id}", api.RequirePermission(handlers.PermissionDelete, api.DeleteDrink))
	mux.Handle("/drinks/{id}", handlers.MethodNotAllowed("PATCH, DELETE"))
	applog.Debug(context.Background(), "route registered", "path", "/drinks/{id}", "protected", true)

	mux.HandleFunc("/", handlers.NotFound)
	return mux
}
