package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/upcycle/internal/chat"
	"github.com/erazemk/upcycle/internal/uploads"
	webembed "github.com/erazemk/upcycle/web"
)

// Options carries the page handlers' dependencies besides the database.
type Options struct {
	Uploads    *uploads.Store
	Chat       chat.Generator
	ChatPrompt string
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, sessionSecret string, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:            db,
		Templates:     templates,
		SessionSecret: sessionSecret,
		Uploads:       opts.Uploads,
		Chat:          opts.Chat,
		ChatPrompt:    opts.ChatPrompt,
	}

	mux := http.NewServeMux()
	private := func(h http.HandlerFunc) http.Handler { return RequireSession(h) }

	// Static assets and uploaded photos.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /uploads/{key}", s.UploadGet)

	// Public routes.
	mux.HandleFunc("GET /{$}", s.LoginPage)
	mux.HandleFunc("POST /{$}", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("GET /logout", s.Logout)
	mux.HandleFunc("GET /search", s.SearchPage)
	mux.HandleFunc("POST /chat", s.ChatSubmit)

	// Answers 401 JSON itself, so no redirect.
	mux.HandleFunc("POST /send_request/{id}", s.SendRequest)

	// Session required.
	mux.Handle("GET /dashboard", private(s.Dashboard))
	mux.Handle("GET /material", private(s.MaterialPage))
	mux.Handle("POST /material", private(s.MaterialSubmit))
	mux.Handle("GET /requests", private(s.RequestsPage))
	mux.Handle("POST /respond_request/{id}", private(s.RespondRequest))

	return SessionMiddleware(sessionSecret, db)(mux), nil
}
