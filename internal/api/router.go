package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/ec-dispatch/internal/api/middleware"
	"github.com/example/ec-dispatch/internal/auth"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.JWTService) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(jwtService)
	optionalAuth := middleware.OptionalAuthMiddleware(jwtService)
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(middleware.RoleAdmin)(h))
	}
	requireRider := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(middleware.RoleRider)(h))
	}
	requireCustomer := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin)(h))
	}

	// Auth
	mux.HandleFunc("/api/auth/register", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Register,
	}))
	mux.HandleFunc("/api/auth/login", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Login,
	}))
	mux.HandleFunc("/api/auth/rider/register", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.RegisterRider,
	}))
	mux.HandleFunc("/api/auth/rider/login", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.LoginRider,
	}))
	mux.HandleFunc("/api/auth/logout", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Logout,
	}))
	mux.HandleFunc("/api/auth/refresh", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Refresh,
	}))
	mux.Handle("/api/auth/me", requireAuth(http.HandlerFunc(authHandlers.Me)))
	mux.Handle("/api/auth/password", requireAuth(http.HandlerFunc(authHandlers.ChangePassword)))

	// Products (public reads, admin writes)
	mux.Handle("/products", optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		case http.MethodPost:
			requireAdmin(handlers.CreateProduct).ServeHTTP(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/products/", optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProduct(w, r)
		case http.MethodPut:
			requireAdmin(handlers.UpdateProduct).ServeHTTP(w, r)
		case http.MethodDelete:
			requireAdmin(handlers.DeleteProduct).ServeHTTP(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Cart
	mux.Handle("/cart", requireCustomer(methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: handlers.GetCart,
	})))
	mux.Handle("/cart/items", requireCustomer(methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: handlers.AddToCart,
	})))
	mux.Handle("/cart/items/", requireCustomer(methodHandler(map[string]http.HandlerFunc{
		http.MethodDelete: handlers.RemoveFromCart,
	})))

	// Orders (customer)
	mux.Handle("/orders", requireCustomer(methodHandler(map[string]http.HandlerFunc{
		http.MethodGet:  handlers.GetOrders,
		http.MethodPost: handlers.PlaceOrder,
	})))
	mux.Handle("/orders/", requireCustomer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			handlers.CancelOrder(w, r)
		case strings.HasSuffix(path, "/tracking") && r.Method == http.MethodGet:
			handlers.GetOrderTracking(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Admin
	mux.Handle("/admin/orders", requireAdmin(handlers.GetAllOrders))
	mux.Handle("/admin/orders/", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPut:
			handlers.SetOrderStatus(w, r)
		case strings.HasSuffix(path, "/assign") && r.Method == http.MethodPost:
			handlers.AssignRider(w, r)
		case strings.HasSuffix(path, "/delivery-date") && r.Method == http.MethodPut:
			handlers.SetDeliveryDate(w, r)
		case r.Method == http.MethodDelete:
			handlers.DeleteOrder(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/admin/riders", requireAdmin(handlers.GetRiders))
	mux.Handle("/admin/riders/", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/active") && r.Method == http.MethodPut:
			handlers.SetRiderActive(w, r)
		case r.Method == http.MethodGet:
			handlers.GetRiderDetail(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/admin/inventory/movements", requireAdmin(handlers.GetInventoryMovements))
	mux.Handle("/admin/inventory/", requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/stock") && r.Method == http.MethodPost:
			handlers.AddStock(w, r)
		case r.Method == http.MethodGet:
			handlers.GetInventory(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Rider
	mux.Handle("/rider/orders", requireRider(handlers.GetRiderOrders))
	mux.Handle("/rider/me", requireRider(handlers.GetRiderProfile))
	mux.Handle("/rider/status", requireRider(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.SetRiderStatus(w, r)
	}))
	mux.Handle("/rider/orders/", requireRider(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/ready") && r.Method == http.MethodPost:
			handlers.MarkReadyToDispatch(w, r)
		case strings.HasSuffix(path, "/start") && r.Method == http.MethodPost:
			handlers.StartDelivery(w, r)
		case strings.HasSuffix(path, "/location") && r.Method == http.MethodPost:
			handlers.UpdateLocation(w, r)
		case strings.HasSuffix(path, "/complete") && r.Method == http.MethodPost:
			handlers.CompleteDelivery(w, r)
		case strings.HasSuffix(path, "/fail") && r.Method == http.MethodPost:
			handlers.FailDelivery(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	return withLogging(mux)
}

func methodHandler(routes map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.Method]; ok {
			handler(w, r)
			return
		}
		respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
