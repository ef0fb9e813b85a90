// stubapi is a fake storefront backend for local development: seeded
// products, login that mints unsigned three-segment tokens, in-memory
// order intake. Nothing here is production auth.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/session"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type server struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	nextID   int64
	orders   map[string]*storedOrder
	tokenTTL time.Duration
}

type storedOrder struct {
	ID          string             `json:"id"`
	Status      domain.OrderStatus `json:"status"`
	TotalAmount float64            `json:"totalAmount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func main() {
	port := getEnv("HTTP_PORT", "8081")

	s := &server{
		products: seedProducts(),
		nextID:   100,
		orders:   make(map[string]*storedOrder),
		tokenTTL: time.Hour,
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.With(s.requireStaff).Post("/products", s.createProduct)
	r.With(s.requireStaff).Put("/products/{id}", s.updateProduct)
	r.With(s.requireStaff).Delete("/products/{id}", s.deleteProduct)

	r.With(s.requireAuth).Post("/orders", s.submitOrder)
	r.With(s.requireStaff).Get("/orders", s.listOrders)
	r.With(s.requireStaff).Put("/orders/{id}/status", s.updateOrderStatus)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("stub backend listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down stub backend...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
}

func seedProducts() map[int64]domain.Product {
	return map[int64]domain.Product{
		1: {ID: 1, Name: "Laptop", Description: "A powerful laptop", Price: 1299.99,
			ImageURL: "https://example.com/laptop.jpg",
			Variants: []domain.Variant{
				{ColorName: "black", ColorHex: "#000000", Stock: 10},
				{ColorName: "silver", ColorHex: "#c0c0c0", Stock: 4},
			}},
		2: {ID: 2, Name: "Mouse", Description: "Wireless mouse", Price: 29.99,
			ImageURL: "https://example.com/mouse.jpg"},
		3: {ID: 3, Name: "Keyboard", Description: "Mechanical keyboard", Price: 89.99,
			ImageURL: "https://example.com/keyboard.jpg",
			Variants: []domain.Variant{
				{ColorName: "white", ColorHex: "#ffffff", Stock: 7},
			}},
	}
}

// mintToken builds an unsigned three-segment token carrying exp and
// role, enough for the client-side gate to exercise its expiry logic.
func mintToken(sub, role string, ttl time.Duration) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, _ := json.Marshal(map[string]interface{}{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	return fmt.Sprintf("%s.%s.%s",
		header,
		base64.RawURLEncoding.EncodeToString(payload),
		base64.RawURLEncoding.EncodeToString([]byte("stub")))
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	role := "CUSTOMER"
	if strings.HasPrefix(body.Email, "staff") {
		role = "STAFF"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": mintToken(body.Email, role, s.tokenTTL),
		"role":  role,
		"user":  map[string]string{"email": body.Email},
	})
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["email"] == "" {
		respondError(w, http.StatusBadRequest, "invalid registration payload")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"email": body["email"]})
}

// requireAuth rejects requests without a live bearer token, answering
// the way the real backend does so the client's session handling can be
// exercised against this stub.
func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claimsFrom(w, r)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), roleContextKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claimsFrom(w, r)
		if !ok {
			return
		}
		if claims.Role != "STAFF" {
			respondJSON(w, http.StatusForbidden, map[string]string{"message": "insufficient permission"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type contextKey string

const roleContextKey contextKey = "role"

func (s *server) claimsFrom(w http.ResponseWriter, r *http.Request) (*session.Claims, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing bearer token"})
		return nil, false
	}

	claims, err := session.DecodeClaims(token)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return nil, false
	}
	if time.Now().Unix() >= claims.Exp {
		respondJSON(w, http.StatusForbidden, map[string]string{"message": "token has expired"})
		return nil, false
	}
	return claims, true
}

func (s *server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *server) createProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	product.ID = s.nextID
	s.products[product.ID] = product
	respondJSON(w, http.StatusCreated, product)
}

func (s *server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var product domain.Product
	if errDecode := json.NewDecoder(r.Body).Decode(&product); errDecode != nil {
		respondError(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	product.ID = id
	s.products[id] = product
	respondJSON(w, http.StatusOK, product)
}

func (s *server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) submitOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TotalAmount float64 `json:"totalAmount"`
		Items       []struct {
			ProductID int64 `json:"productId"`
			Quantity  int   `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Items) == 0 {
		respondError(w, http.StatusBadRequest, "order must contain items")
		return
	}

	order := &storedOrder{
		ID:          uuid.NewString(),
		Status:      domain.OrderStatusPending,
		TotalAmount: body.TotalAmount,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, order)
}

func (s *server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*storedOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	order.Status = status
	respondJSON(w, http.StatusOK, order)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
