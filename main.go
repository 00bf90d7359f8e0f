package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshinde1318/Milk-Management-System-backend/internal/audit"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/auth"
	billingapp "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/application"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/notify"
	"github.com/dshinde1318/Milk-Management-System-backend/internal/observability/metrics"
	rateapp "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/application"
	raterepo "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/infrastructure/postgres"
	ratehttp "github.com/dshinde1318/Milk-Management-System-backend/internal/rates/interfaces/http"
	supplyapp "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/application"
	supplyrepo "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/infrastructure/postgres"
	supplyhttp "github.com/dshinde1318/Milk-Management-System-backend/internal/supply/interfaces/http"
	txapp "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/application"
	txrepo "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/infrastructure/postgres"
	txhttp "github.com/dshinde1318/Milk-Management-System-backend/internal/transactions/interfaces/http"
	userapp "github.com/dshinde1318/Milk-Management-System-backend/internal/users/application"
	userrepo "github.com/dshinde1318/Milk-Management-System-backend/internal/users/infrastructure/postgres"
	userhttp "github.com/dshinde1318/Milk-Management-System-backend/internal/users/interfaces/http"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()
	auditRepo := audit.NewRepository(db)

	userService, err := userapp.NewService(userrepo.NewUserRepository(db), []byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Fatalf("user service error: %v", err)
	}

	rateService, err := rateapp.NewService(raterepo.NewRateRepository(db))
	if err != nil {
		logger.Fatalf("rate service error: %v", err)
	}

	notifyCfg, err := notify.LoadConfig()
	if err != nil {
		logger.Fatalf("notify config error: %v", err)
	}
	var channel notify.Channel = notify.NewLogChannel(logger)
	if notifyCfg.WebhookURL != "" {
		channel = notify.NewWebhookChannel(notifyCfg.WebhookURL)
	}
	notifier, err := notify.NewNotifier(userService, channel, notifyCfg, logger)
	if err != nil {
		logger.Fatalf("notifier error: %v", err)
	}

	transactionRepo := txrepo.NewTransactionRepository(db)
	ledgerService, err := txapp.NewService(transactionRepo, rateService, userService, notifier, logger)
	if err != nil {
		logger.Fatalf("ledger service error: %v", err)
	}

	billingService, err := billingapp.NewService(transactionRepo, notifier, logger)
	if err != nil {
		logger.Fatalf("billing service error: %v", err)
	}

	supplyService, err := supplyapp.NewService(supplyrepo.NewSupplyRepository(db), userService)
	if err != nil {
		logger.Fatalf("supply service error: %v", err)
	}

	userHandler, err := userhttp.NewHandler(userService, auditRepo)
	if err != nil {
		logger.Fatalf("user handler error: %v", err)
	}
	rateHandler, err := ratehttp.NewHandler(rateService, auditRepo)
	if err != nil {
		logger.Fatalf("rate handler error: %v", err)
	}
	transactionHandler, err := txhttp.NewHandler(ledgerService, billingService, auditRepo)
	if err != nil {
		logger.Fatalf("transaction handler error: %v", err)
	}
	supplyHandler, err := supplyhttp.NewHandler(supplyService)
	if err != nil {
		logger.Fatalf("supply handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/api/v1/auth/login"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/auth/login", userHandler)
	mux.Handle("/api/v1/auth/me", userHandler)
	mux.Handle("/api/v1/users", userHandler)
	mux.Handle("/api/v1/users/", userHandler)
	mux.Handle("/api/v1/admin/buyers", userHandler)
	mux.Handle("/api/v1/admin/buyers/", userHandler)
	mux.Handle("/api/v1/milk-rates", rateHandler)
	mux.Handle("/api/v1/milk-rates/", rateHandler)
	mux.Handle("/api/v1/milk-transactions", transactionHandler)
	mux.Handle("/api/v1/milk-transactions/", transactionHandler)
	mux.Handle("/api/v1/milk-supply", supplyHandler)
	mux.Handle("/api/v1/milk-supply/", supplyHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	TokenTTL    time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TokenTTL:    getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
