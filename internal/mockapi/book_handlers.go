package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/go-chi/chi/v5"
)

type bookDTO struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	Discount        float64 `json:"discount"`
	Stock           int     `json:"stock"`
	CoverImage      string  `json:"coverImage"`
	Format          string  `json:"format"`
	Featured        bool    `json:"featured"`
	ISBN            string  `json:"isbn"`
	Publisher       string  `json:"publisher"`
	PublicationDate string  `json:"publicationDate"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("searchTerm"))
	genre := q.Get("genre")
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	var matched []domain.Book
	for _, id := range s.bookSeq {
		b := s.books[id]
		if genre != "" && b.Genre != genre {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Author), search) {
			continue
		}
		matched = append(matched, *b)
	}
	s.mu.Unlock()

	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	respondList(w, http.StatusOK, "books retrieved", matched[start:end], &domain.Meta{
		Page:      page,
		Limit:     limit,
		Total:     total,
		TotalPage: (total + limit - 1) / limit,
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b, ok := s.books[chi.URLParam(r, "id")]
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	respondJSON(w, http.StatusOK, "book retrieved", b)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Price <= 0 {
		respondError(w, http.StatusBadRequest, "title and a positive price are required")
		return
	}

	s.mu.Lock()
	b := bookFromDTO(req)
	s.books[b.ID] = b
	s.bookSeq = append(s.bookSeq, b.ID)
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, "book created", b)
}

func (s *Server) handleCreateBooksBulk(w http.ResponseWriter, r *http.Request) {
	var reqs []bookDTO
	if !decodeBody(w, r, &reqs) {
		return
	}

	s.mu.Lock()
	created := make([]*domain.Book, 0, len(reqs))
	for _, req := range reqs {
		b := bookFromDTO(req)
		s.books[b.ID] = b
		s.bookSeq = append(s.bookSeq, b.ID)
		created = append(created, b)
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, "books created", created)
}

func (s *Server) handleEditBook(w http.ResponseWriter, r *http.Request) {
	var req bookDTO
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}

	b.Title = req.Title
	b.Author = req.Author
	b.Genre = req.Genre
	b.Description = req.Description
	b.Price = req.Price
	b.Discount = req.Discount
	b.DiscountedPrice = discounted(req.Price, req.Discount)
	b.Stock = req.Stock
	b.CoverImage = req.CoverImage
	b.Format = req.Format
	b.Featured = req.Featured
	b.UpdatedAt = time.Now()
	respondJSON(w, http.StatusOK, "book updated", b)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		respondError(w, http.StatusNotFound, "book not found")
		return
	}
	delete(s.books, id)
	for i, seq := range s.bookSeq {
		if seq == id {
			s.bookSeq = append(s.bookSeq[:i], s.bookSeq[i+1:]...)
			break
		}
	}
	respondJSON(w, http.StatusOK, "book deleted", nil)
}

// SeedBook inserts a book directly, bypassing auth. Test setup helper.
func (s *Server) SeedBook(b domain.Book) domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = newID()
	}
	copied := b
	s.books[b.ID] = &copied
	s.bookSeq = append(s.bookSeq, b.ID)
	return b
}

func bookFromDTO(req bookDTO) *domain.Book {
	now := time.Now()
	return &domain.Book{
		ID:              newID(),
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Description:     req.Description,
		Price:           req.Price,
		Discount:        req.Discount,
		DiscountedPrice: discounted(req.Price, req.Discount),
		Stock:           req.Stock,
		CoverImage:      req.CoverImage,
		Format:          req.Format,
		Featured:        req.Featured,
		ISBN:            req.ISBN,
		Publisher:       req.Publisher,
		PublicationDate: req.PublicationDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func discounted(price, discount float64) float64 {
	if discount <= 0 {
		return 0
	}
	return price * (1 - discount/100)
}
