package http

import (
	"net/http"
	"time"

	"gastos/internal/auth"
	"gastos/internal/core"
	"gastos/internal/services"
)

type userView struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	DateJoined string `json:"date_joined"`
}

func newUserView(u *core.User) userView {
	return userView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	user, pair, err := s.accounts.Register(r.Context(), services.RegisterInput{
		Email:           body.Email,
		Password:        body.Password,
		PasswordConfirm: body.Password2,
		FirstName:       body.FirstName,
		LastName:        body.LastName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":   newUserView(user),
		"tokens": pair,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	user, pair, err := s.accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":   newUserView(user),
		"tokens": pair,
	})
}

// handleLogout blacklists the refresh token. A missing or malformed
// token is a 400, matching the semantics of a form error rather than an
// authorization failure.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := s.accounts.Logout(r.Context(), body.Refresh); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid refresh token")
		return
	}

	w.WriteHeader(http.StatusResetContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	access, err := s.accounts.Refresh(r.Context(), body.Refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	user, err := s.accounts.Profile(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// handleUpdateProfile serves both PUT and PATCH. Only the name fields
// are writable; email and join date are ignored if sent.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	current, err := s.accounts.Profile(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}{}
	if !decodeJSON(w, r, &body) {
		return
	}

	firstName := current.FirstName
	lastName := current.LastName
	if body.FirstName != nil {
		firstName = *body.FirstName
	}
	if body.LastName != nil {
		lastName = *body.LastName
	}

	user, err := s.accounts.UpdateProfile(r.Context(), principal.UserID, firstName, lastName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	var body struct {
		OldPassword  string `json:"old_password"`
		NewPassword  string `json:"new_password"`
		NewPassword2 string `json:"new_password2"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := s.accounts.ChangePassword(r.Context(), principal.UserID, body.OldPassword, body.NewPassword, body.NewPassword2); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "password updated"})
}
