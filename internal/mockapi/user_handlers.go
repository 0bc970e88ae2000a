package mockapi

import (
	"net/http"
	"strings"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleMyProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	a := s.accounts[claims.Email]
	s.mu.Unlock()

	if a == nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}
	respondJSON(w, http.StatusOK, "profile retrieved", domain.Profile{
		Name:     a.name,
		FullName: fullName(a.name),
		Image:    a.image,
	})
}

func (s *Server) handleEditMyProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  domain.Name `json:"name"`
		Image string      `json:"image"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[claims.Email]
	if a == nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}

	a.name = req.Name
	if req.Image != "" {
		a.image = req.Image
	}
	respondJSON(w, http.StatusOK, "profile updated", domain.Profile{
		Name:     a.name,
		FullName: fullName(a.name),
		Image:    a.image,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]domain.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, domain.User{
			ID:        a.id,
			Email:     a.email,
			Role:      a.role,
			FullName:  fullName(a.name),
			IsBlocked: a.blocked,
			CreatedAt: a.created,
		})
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, "users retrieved", users)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsBlocked bool `json:"isBlocked"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.id == id {
			a.blocked = req.IsBlocked
			respondJSON(w, http.StatusOK, "user updated", nil)
			return
		}
	}
	respondError(w, http.StatusNotFound, "user not found")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for email, a := range s.accounts {
		if a.id == id {
			delete(s.accounts, email)
			respondJSON(w, http.StatusOK, "user deleted", nil)
			return
		}
	}
	respondError(w, http.StatusNotFound, "user not found")
}

func fullName(n domain.Name) string {
	parts := []string{n.FirstName, n.MiddleName, n.LastName}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
