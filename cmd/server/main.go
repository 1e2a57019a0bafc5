package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/perpusku/library-engine/internal/config"
	"github.com/perpusku/library-engine/internal/handler"
	"github.com/perpusku/library-engine/internal/middleware"
	"github.com/perpusku/library-engine/internal/repository"
	"github.com/perpusku/library-engine/internal/service"
	"github.com/perpusku/library-engine/pkg/response"
)

func main() {
	// Load .env if present; in production config comes from real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	bookRepo := repository.NewBookRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// Initialize services
	borrowingService := service.NewBorrowingService(loanRepo, bookRepo, notifRepo, cfg)
	catalogService := service.NewCatalogService(bookRepo, loanRepo)
	memberService := service.NewMemberService(memberRepo, loanRepo)
	progressService := service.NewProgressService(progressRepo, loanRepo)
	monitoringService := service.NewMonitoringService(loanRepo, bookRepo, memberRepo, redisClient, cfg)
	notificationService := service.NewNotificationService(notifRepo, loanRepo)

	// Initialize handlers
	borrowingHandler := handler.NewBorrowingHandler(borrowingService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	memberHandler := handler.NewMemberHandler(memberService)
	progressHandler := handler.NewProgressHandler(progressService)
	monitoringHandler := handler.NewMonitoringHandler(monitoringService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	authenticator := middleware.NewAuthenticator(cfg.Auth.JWTSecret)

	// Setup routes
	router := setupRoutes(
		authenticator,
		borrowingHandler,
		catalogHandler,
		memberHandler,
		progressHandler,
		monitoringHandler,
		notificationHandler,
		healthHandler,
	)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	authenticator *middleware.Authenticator,
	borrowingHandler *handler.BorrowingHandler,
	catalogHandler *handler.CatalogHandler,
	memberHandler *handler.MemberHandler,
	progressHandler *handler.ProgressHandler,
	monitoringHandler *handler.MonitoringHandler,
	notificationHandler *handler.NotificationHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes, all behind authentication
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authenticator.Middleware)

	// Borrowing lifecycle
	api.HandleFunc("/loans", borrowingHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", borrowingHandler.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}/return", borrowingHandler.ReturnLoan).Methods("POST")

	// Reading progress
	api.HandleFunc("/loans/{loanId}/progress", progressHandler.RecordProgress).Methods("PUT")
	api.HandleFunc("/loans/{loanId}/progress", progressHandler.GetProgress).Methods("GET")
	api.HandleFunc("/members/{memberId}/progress", progressHandler.MemberHistory).Methods("GET")

	// Catalog
	api.HandleFunc("/books", catalogHandler.CreateBook).Methods("POST")
	api.HandleFunc("/books", catalogHandler.ListBooks).Methods("GET")
	api.HandleFunc("/books/{bookId}", catalogHandler.GetBook).Methods("GET")
	api.HandleFunc("/books/{bookId}", catalogHandler.UpdateBook).Methods("PUT")
	api.HandleFunc("/books/{bookId}", catalogHandler.DeleteBook).Methods("DELETE")
	api.HandleFunc("/shelves", catalogHandler.CreateShelf).Methods("POST")
	api.HandleFunc("/shelves", catalogHandler.ListShelves).Methods("GET")
	api.HandleFunc("/shelves/{shelfId}", catalogHandler.UpdateShelf).Methods("PUT")
	api.HandleFunc("/shelves/{shelfId}", catalogHandler.DeleteShelf).Methods("DELETE")

	// Membership
	api.HandleFunc("/members", memberHandler.CreateMember).Methods("POST")
	api.HandleFunc("/members", memberHandler.ListMembers).Methods("GET")
	api.HandleFunc("/members/{memberId}", memberHandler.GetMember).Methods("GET")
	api.HandleFunc("/members/{memberId}", memberHandler.UpdateMember).Methods("PUT")
	api.HandleFunc("/members/{memberId}", memberHandler.DeleteMember).Methods("DELETE")

	// Monitoring and reports
	api.HandleFunc("/monitoring/summary", monitoringHandler.LibrarySummary).Methods("GET")
	api.HandleFunc("/monitoring/class/{kelas}", monitoringHandler.ClassSummary).Methods("GET")
	api.HandleFunc("/reports/loans", monitoringHandler.LoanReport).Methods("GET")
	api.HandleFunc("/reports/loans.csv", monitoringHandler.LoanReportCSV).Methods("GET")

	// Notifications
	api.HandleFunc("/notifications", notificationHandler.ListOwn).Methods("GET")
	api.HandleFunc("/notifications/{notificationId}/read", notificationHandler.MarkRead).Methods("POST")

	return router
}
