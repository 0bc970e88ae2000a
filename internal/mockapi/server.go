// Package mockapi is an in-memory implementation of the book shop REST
// contract. It exists for local development and tests; it fakes the
// backend's surface, not its business logic.
package mockapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	refreshCookieName = "refreshToken"

	// AccessTokenTTL is deliberately short; the client's refresh-retry
	// path is the interesting part.
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type account struct {
	id       string
	email    string
	password string
	role     string
	name     domain.Name
	image    string
	blocked  bool
	created  time.Time
}

type Server struct {
	mu       sync.Mutex
	secret   []byte
	accounts map[string]*account // email -> account
	refresh  map[string]string   // refresh token -> account id
	books    map[string]*domain.Book
	bookSeq  []string // insertion order
	orders   map[string]*domain.Order
	orderSeq []string
	reviews  map[string]*domain.Review
	idemKeys map[string]string // idempotency key -> order id
	payments map[string]*domain.PaymentVerification
}

func NewServer(secret string) *Server {
	return &Server{
		secret:   []byte(secret),
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
		books:    make(map[string]*domain.Book),
		orders:   make(map[string]*domain.Order),
		reviews:  make(map[string]*domain.Review),
		idemKeys: make(map[string]string),
		payments: make(map[string]*domain.PaymentVerification),
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh-token", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth).Post("/change-password", s.handleChangePassword)
	})

	r.Route("/books", func(r chi.Router) {
		r.Get("/", s.handleListBooks)
		r.Get("/{id}", s.handleGetBook)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth, s.requireAdmin)
			r.Post("/", s.handleCreateBook)
			r.Post("/bulk", s.handleCreateBooksBulk)
			r.Patch("/{id}", s.handleEditBook)
			r.Delete("/{id}", s.handleDeleteBook)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/verify", s.handleVerifyPayment)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/create-order", s.handleCreateOrder)
			r.Get("/my-orders", s.handleMyOrders)
			r.Get("/{id}", s.handleGetOrder)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth, s.requireAdmin)
			r.Get("/", s.handleListOrders)
			r.Patch("/{id}/status", s.handleUpdateOrderStatus)
			r.Delete("/{id}", s.handleDeleteOrder)
		})
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/book/{bookId}", s.handleReviewsByBook)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/my-reviews", s.handleMyReviews)
			r.Post("/book/{bookId}", s.handleCreateReview)
			r.Patch("/{id}", s.handleUpdateReview)
			r.Delete("/{id}", s.handleDeleteReview)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/my-profile", s.handleMyProfile)
		r.Patch("/my-profile", s.handleEditMyProfile)
	})

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(s.requireAuth, s.requireAdmin)
		r.Get("/", s.handleListUsers)
		r.Patch("/{id}", s.handleUpdateUser)
		r.Delete("/{id}", s.handleDeleteUser)
	})

	return r
}

type ctxKey string

const claimsKey ctxKey = "claims"

type accessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		var claims accessClaims
		_, err := jwt.ParseWithClaims(
			strings.TrimPrefix(header, "Bearer "),
			&claims,
			func(*jwt.Token) (interface{}, error) { return s.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, &claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r.Context()).Role != domain.RoleAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) *accessClaims {
	if c, ok := ctx.Value(claimsKey).(*accessClaims); ok {
		return c
	}
	return &accessClaims{}
}

// IssueAccessToken mints a signed token for the given account id with
// the given lifetime. Tests use it to fabricate expired sessions.
func (s *Server) IssueAccessToken(accountID string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.id == accountID {
			return s.signToken(a, ttl)
		}
	}
	return ""
}

func (s *Server) signToken(a *account, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID: a.id,
		Email:  a.email,
		Role:   a.role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("mockapi: failed to sign token: %v", err)
		return ""
	}
	return signed
}

type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Meta    *domain.Meta `json:"meta,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	respondList(w, status, message, data, nil)
}

func respondList(w http.ResponseWriter, status int, message string, data any, meta *domain.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
	if err != nil {
		log.Printf("mockapi: failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, message, nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func newID() string {
	return uuid.New().String()
}
