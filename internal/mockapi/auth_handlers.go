package mockapi

import (
	"net/http"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
)

type registerDTO struct {
	Name     domain.Name `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

type loginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register an account. The first account ever created becomes the
// admin, mirroring the usual seed-user convention.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	role := domain.RoleCustomer
	if len(s.accounts) == 0 {
		role = domain.RoleAdmin
	}
	a := &account{
		id:       newID(),
		email:    req.Email,
		password: req.Password,
		role:     role,
		name:     req.Name,
		created:  time.Now(),
	}
	s.accounts[req.Email] = a
	access := s.signToken(a, AccessTokenTTL)
	refresh := s.issueRefreshLocked(a)
	s.mu.Unlock()

	setRefreshCookie(w, refresh)
	respondJSON(w, http.StatusCreated, "registered successfully", map[string]string{"accessToken": access})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginDTO
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	a, exists := s.accounts[req.Email]
	if !exists || a.password != req.Password {
		s.mu.Unlock()
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if a.blocked {
		s.mu.Unlock()
		respondError(w, http.StatusForbidden, "account is blocked")
		return
	}
	access := s.signToken(a, AccessTokenTTL)
	refresh := s.issueRefreshLocked(a)
	s.mu.Unlock()

	setRefreshCookie(w, refresh)
	respondJSON(w, http.StatusOK, "logged in successfully", map[string]string{"accessToken": access})
}

// handleRefresh exchanges the http-only cookie for a fresh access
// token. The expired bearer token plays no part here.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	s.mu.Lock()
	accountID, ok := s.refresh[cookie.Value]
	var a *account
	if ok {
		for _, candidate := range s.accounts {
			if candidate.id == accountID {
				a = candidate
				break
			}
		}
	}
	if a == nil {
		s.mu.Unlock()
		respondError(w, http.StatusUnauthorized, "refresh token invalid")
		return
	}
	access := s.signToken(a, AccessTokenTTL)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, "token refreshed", map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		s.mu.Lock()
		delete(s.refresh, cookie.Value)
		s.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, "logged out", nil)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[claims.Email]
	if a == nil || a.password != req.OldPassword {
		respondError(w, http.StatusBadRequest, "old password does not match")
		return
	}
	a.password = req.NewPassword
	respondJSON(w, http.StatusOK, "password changed", nil)
}

// issueRefreshLocked mints and records a refresh token. Caller holds
// s.mu.
func (s *Server) issueRefreshLocked(a *account) string {
	token := newID()
	s.refresh[token] = a.id
	return token
}

// RevokeRefreshTokens drops every refresh token so the next refresh
// attempt fails. Tests use it to force definitive session expiry.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]string)
}

func setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(RefreshTokenTTL / time.Second),
		HttpOnly: true,
	})
}
