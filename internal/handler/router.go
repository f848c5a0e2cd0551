package handler

import (
	"net/http"

	"bloglist-server/internal/middleware"
	"bloglist-server/internal/service"
	"bloglist-server/internal/websocket"
	"bloglist-server/pkg/response"

	"github.com/gorilla/mux"
)

type RouterOptions struct {
	AuthService *service.AuthService
	UserService *service.UserService
	BlogService *service.BlogService

	// Feed is optional; /ws is not mounted without it.
	Feed              *websocket.Manager
	WSReadBufferSize  int
	WSWriteBufferSize int

	// LoginLimiter is optional; nil disables login rate limiting.
	LoginLimiter *middleware.RateLimiter

	CORSAllowedOrigins string
	CORSAllowedMethods string
	CORSAllowedHeaders string
}

func NewRouter(opts RouterOptions) *mux.Router {
	authHandler := NewAuthHandler(opts.AuthService)
	userHandler := NewUserHandler(opts.UserService, opts.AuthService)
	blogHandler := NewBlogHandler(opts.BlogService)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		opts.CORSAllowedOrigins,
		opts.CORSAllowedMethods,
		opts.CORSAllowedHeaders,
	))

	protect := middleware.AuthMiddleware(opts.AuthService)

	var login http.Handler = http.HandlerFunc(authHandler.Login)
	if opts.LoginLimiter != nil {
		login = middleware.RateLimitMiddleware(opts.LoginLimiter)(login)
	}

	api := r.PathPrefix("/api").Subrouter()

	api.Handle("/login", login).Methods("POST", "OPTIONS")

	api.HandleFunc("/users", userHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/users", userHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/users/{id}", userHandler.Get).Methods("GET", "OPTIONS")

	api.HandleFunc("/blogs", blogHandler.List).Methods("GET", "OPTIONS")
	api.Handle("/blogs", protect(http.HandlerFunc(blogHandler.Create))).Methods("POST", "OPTIONS")
	api.HandleFunc("/blogs/{id}", blogHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/blogs/{id}", blogHandler.Update).Methods("PUT", "OPTIONS")
	api.Handle("/blogs/{id}", protect(http.HandlerFunc(blogHandler.Delete))).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/blogs/{id}/like", blogHandler.Like).Methods("POST", "OPTIONS")

	if opts.Feed != nil {
		wsHandler := NewWebSocketHandler(opts.Feed, opts.AuthService, opts.WSReadBufferSize, opts.WSWriteBufferSize)
		r.HandleFunc("/ws", wsHandler.HandleConnection)
	}

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":  "healthy",
		"service": "bloglist-server",
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "Bloglist API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"/api/users":           "GET, POST",
			"/api/users/{id}":      "GET",
			"/api/login":           "POST",
			"/api/blogs":           "GET, POST (protected)",
			"/api/blogs/{id}":      "GET, PUT, DELETE (protected)",
			"/api/blogs/{id}/like": "POST",
			"/ws":                  "GET (protected)",
		},
	})
}
