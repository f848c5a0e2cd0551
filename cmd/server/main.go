package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloglist-server/internal/config"
	"bloglist-server/internal/handler"
	"bloglist-server/internal/middleware"
	"bloglist-server/internal/repository"
	"bloglist-server/internal/service"
	"bloglist-server/internal/websocket"
)

type stores struct {
	users repository.UserRepository
	blogs repository.BlogRepository
	close func(context.Context) error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, db, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.Name)
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to MongoDB database %s", cfg.Name)
		return &stores{
			users: repository.NewMongoUserRepository(db),
			blogs: repository.NewMongoBlogRepository(db),
			close: client.Disconnect,
		}, nil

	case config.DriverMemory:
		log.Printf("Using in-memory store, data is lost on restart")
		store := repository.NewMemoryStore()
		return &stores{
			users: store.Users(),
			blogs: store.Blogs(),
			close: func(context.Context) error { return nil },
		}, nil

	default:
		client, err := repository.ConnectCouchDB(ctx, cfg.CouchURL(), cfg.Name)
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to CouchDB at %s:%s", cfg.Host, cfg.Port)
		return &stores{
			users: repository.NewUserRepository(client, cfg.Name),
			blogs: repository.NewBlogRepository(client, cfg.Name),
			close: func(context.Context) error { return client.Close() },
		}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStores(connectCtx, cfg.Database)
	cancelConnect()
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Database.Driver, err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	})
	go wsManager.Run(ctx)

	authService := service.NewAuthService(st.users, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Security.BcryptCost)
	userService := service.NewUserService(st.users, st.blogs)
	blogService := service.NewBlogService(st.blogs, st.users, wsManager)

	var loginLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		loginLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute)
		if err := loginLimiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
			log.Fatalf("Invalid RATE_LIMIT_TRUSTED_PROXIES: %v", err)
		}
		go loginLimiter.RunCleanup(time.Minute, ctx.Done())
	}

	r := handler.NewRouter(handler.RouterOptions{
		AuthService:        authService,
		UserService:        userService,
		BlogService:        blogService,
		Feed:               wsManager,
		WSReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WSWriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		LoginLimiter:       loginLimiter,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSAllowedMethods: cfg.CORS.AllowedMethods,
		CORSAllowedHeaders: cfg.CORS.AllowedHeaders,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting bloglist server on %s (env: %s)", addr, cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	stop()

	if err := st.close(shutdownCtx); err != nil {
		log.Printf("Failed to close store: %v", err)
	}

	log.Println("Server stopped gracefully")
}
