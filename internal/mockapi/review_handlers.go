package mockapi

import (
	"net/http"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/go-chi/chi/v5"
)

type reviewDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleReviewsByBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")

	s.mu.Lock()
	var matched []domain.Review
	for _, rv := range s.reviews {
		if rv.BookID == bookID {
			matched = append(matched, *rv)
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, "reviews retrieved", matched)
}

func (s *Server) handleMyReviews(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	var mine []domain.Review
	for _, rv := range s.reviews {
		if rv.User.ID == claims.UserID {
			mine = append(mine, *rv)
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, "reviews retrieved", mine)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	bookID := chi.URLParam(r, "bookId")
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[bookID]
	if !ok {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}

	now := time.Now()
	rv := &domain.Review{
		ID:        newID(),
		User:      domain.ReviewAuthor{ID: claims.UserID},
		BookID:    bookID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.reviews[rv.ID] = rv
	s.recalcRatingLocked(b)
	respondJSON(w, http.StatusCreated, "review created", rv)
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewDTO
	if !decodeBody(w, r, &req) {
		return
	}

	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "review not found")
		return
	}
	if rv.User.ID != claims.UserID {
		respondError(w, http.StatusForbidden, "not your review")
		return
	}

	rv.Rating = req.Rating
	rv.Comment = req.Comment
	rv.UpdatedAt = time.Now()
	if b, ok := s.books[rv.BookID]; ok {
		s.recalcRatingLocked(b)
	}
	respondJSON(w, http.StatusOK, "review updated", rv)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "review not found")
		return
	}
	if rv.User.ID != claims.UserID && claims.Role != domain.RoleAdmin {
		respondError(w, http.StatusForbidden, "not your review")
		return
	}

	delete(s.reviews, rv.ID)
	if b, ok := s.books[rv.BookID]; ok {
		s.recalcRatingLocked(b)
	}
	respondJSON(w, http.StatusOK, "review deleted", nil)
}

// recalcRatingLocked rebuilds the book's aggregate rating. This is why
// review mutations must invalidate Book caches on the client. Caller
// holds s.mu.
func (s *Server) recalcRatingLocked(b *domain.Book) {
	var sum, n int
	for _, rv := range s.reviews {
		if rv.BookID == b.ID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		b.Rating = 0
		return
	}
	b.Rating = float64(sum) / float64(n)
}
