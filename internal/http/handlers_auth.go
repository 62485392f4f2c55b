package http

import (
	"net/http"
	"strings"

	"subsentry/internal/core"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the wire shape of a user; the password hash never leaves
// the process.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := s.sessions.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully!",
		"user":    toUserResponse(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome back!",
		"user":    toUserResponse(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions.CurrentUser() == nil {
		respondError(w, http.StatusUnauthorized, "Please log in first.")
		return
	}
	if err := s.sessions.Logout(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

// handleSession reports the authenticated user, or null when the session
// is anonymous.
func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	user := s.sessions.CurrentUser()
	if user == nil {
		respondJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(*user)})
}
