package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, sessionSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Secret: sessionSecret}
	materialsHandler := &MaterialsHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	impactHandler := &ImpactHandler{DB: db}

	authMW := AuthMiddleware(sessionSecret, db)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/materials", authMW(http.HandlerFunc(materialsHandler.List)))
	mux.Handle("GET /api/materials/{id}", authMW(http.HandlerFunc(materialsHandler.Get)))
	mux.Handle("POST /api/materials/{id}/requests", authMW(http.HandlerFunc(requestsHandler.Create)))

	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("POST /api/requests/{id}/respond", authMW(http.HandlerFunc(requestsHandler.Respond)))

	mux.Handle("GET /api/impact", authMW(http.HandlerFunc(impactHandler.Get)))

	return mux
}
