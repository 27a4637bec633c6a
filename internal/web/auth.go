package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/upcycle/internal/auth"
	"github.com/erazemk/upcycle/internal/model"
	"github.com/erazemk/upcycle/internal/store"
)

// LoginPage handles GET /.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if GetSession(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &loginData{PageData: PageData{Title: "Log in"}})
}

// loginData keeps the typed email when the form is shown again.
type loginData struct {
	PageData
	Email string
}

// LoginSubmit handles POST /.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func() {
		s.Templates.Render(w, "login.html", &loginData{
			PageData: PageData{Title: "Log in", Error: "Invalid email or password"},
			Email:    email,
		})
	}

	if email == "" || password == "" {
		fail()
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		fail()
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "email", email, "remote", r.RemoteAddr)
		fail()
		return
	}

	token, err := auth.GenerateToken(s.SessionSecret, user.ID, user.Email, user.Name)
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		s.Templates.Render(w, "login.html", &loginData{
			PageData: PageData{Title: "Log in", Error: "Login failed, please try again."},
			Email:    email,
		})
		return
	}

	setSessionCookie(w, token)
	slog.Info("user logged in", "user", user.Email)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// registerData keeps what the user typed when the form is shown again.
type registerData struct {
	PageData
	Name  string
	Email string
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &registerData{PageData: PageData{Title: "Register"}})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("c_password")

	fail := func(msg string) {
		s.Templates.Render(w, "register.html", &registerData{
			PageData: PageData{Title: "Register", Error: msg},
			Name:     name,
			Email:    email,
		})
	}

	if err := model.ValidateRegistration(name, email, password, confirm); err != nil {
		fail(err.Error())
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		fail("Registration failed, please try again.")
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, name, email, hash); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			fail("Email already registered")
			return
		}
		slog.Error("failed to create user", "error", err)
		fail("Registration failed, please try again.")
		return
	}

	slog.Info("user registered", "user", email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles GET /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetSession(r.Context()); claims != nil {
		expires := time.Now().Add(auth.TokenExpiry)
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, expires); err != nil {
			slog.Error("failed to revoke session token", "error", err)
		}
		slog.Info("user logged out", "user", claims.Email)
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
