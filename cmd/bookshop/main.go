package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/fjod/go_bookshop/internal/api"
	"github.com/fjod/go_bookshop/internal/auth"
	"github.com/fjod/go_bookshop/internal/cart"
	"github.com/fjod/go_bookshop/internal/checkout"
	"github.com/fjod/go_bookshop/internal/domain"
)

type Config struct {
	APIBaseURL     string
	DBPath         string
	MigrationsPath string
	Email          string
	Password       string
}

func loadConfig() *Config {
	return &Config{
		APIBaseURL:     getEnv("BOOKSHOP_API_URL", "http://localhost:8080"),
		DBPath:         getEnv("BOOKSHOP_DB_PATH", "bookshop.db"),
		MigrationsPath: getEnv("BOOKSHOP_MIGRATIONS_PATH", "internal/cart/migrations"),
		Email:          getEnv("BOOKSHOP_EMAIL", ""),
		Password:       getEnv("BOOKSHOP_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// A small scripted storefront session: restore local state, sign in,
// browse, fill the cart, and check out.
func main() {
	cfg := loadConfig()

	repo, err := cart.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	session, err := auth.NewSession(repo)
	if err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}

	store, err := cart.NewStore(repo)
	if err != nil {
		log.Fatalf("Failed to restore cart: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, session, api.WithTracing())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if session.Claims() == nil && cfg.Email != "" {
		guest := session.OwnerID()
		if err := client.Login(ctx, cfg.Email, cfg.Password); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		// Carry any guest-cart lines into the signed-in identity.
		store.Merge(guest, session.OwnerID())
		log.Printf("Signed in as %s", session.Claims().Email)
	}

	owner := session.OwnerID()

	books, meta, err := client.Books(ctx, url.Values{"limit": []string{"5"}})
	if err != nil {
		log.Fatalf("Failed to list books: %v", err)
	}
	log.Printf("Catalog has %d books", meta.Total)

	for _, b := range books {
		log.Printf("  %-30s %8.2f (stock %d)", b.Title, b.EffectivePrice(), b.Stock)
	}

	if len(books) == 0 {
		log.Println("Nothing to buy, catalog is empty")
		return
	}

	store.Add(books[0], owner)
	store.Add(books[0], owner)
	if len(books) > 1 {
		store.Add(books[1], owner)
	}
	log.Printf("Cart: %d items, total %.2f", store.Count(owner), store.Total(owner))

	if session.Claims() == nil {
		log.Println("Sign in (BOOKSHOP_EMAIL/BOOKSHOP_PASSWORD) to check out")
		return
	}

	svc := checkout.NewService(client, store)
	receipt, err := svc.Submit(ctx, owner, domain.ShippingAddress{
		Name:    "Bookshop CLI",
		Address: "1 Demo Street",
		City:    "Devtown",
		Country: "US",
	}, "card")
	if err != nil {
		log.Fatalf("Checkout failed: %v", err)
	}
	log.Printf("Order %s placed, pay at %s", receipt.OrderID, receipt.CheckoutURL)

	verification, err := svc.AwaitPayment(ctx, receipt.OrderID)
	if err != nil {
		log.Fatalf("Payment verification: %v", err)
	}
	log.Printf("Payment %s (%s)", verification.BankStatus, verification.SpMessage)
}
