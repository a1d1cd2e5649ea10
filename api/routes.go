package api

import (
	"github.com/gorilla/mux"

	"github.com/garnizeh/jobboard/internal/auth"
	"github.com/garnizeh/jobboard/internal/chat"
	"github.com/garnizeh/jobboard/internal/config"
	"github.com/garnizeh/jobboard/internal/db"
	"github.com/garnizeh/jobboard/internal/repository/sqlite"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, database *db.DB, nonces auth.NonceStore, proofVerifier ProofVerifier, paymentVerifier PaymentVerifier, completer chat.Completer) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow))

	// Repository
	repo := sqlite.New(database, logger)

	// Chat engine
	engine := chat.NewEngine(completer, repo, chat.Config{
		Model:      cfg.EngineConfig.Model,
		Timeout:    cfg.EngineConfig.Timeout,
		Persona:    cfg.EngineConfig.Persona,
		RecentJobs: cfg.EngineConfig.RecentJobs,
	}, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, proofVerifier, nonces, cfg.JWTSecret, cfg.TokenDuration, cfg.DemoLogin)
	jobsHandler := NewJobsHandler(repo, repo, repo, repo, cfg.FrontendBaseURL, cfg.JobLinkPrice)
	paymentsHandler := NewPaymentsHandler(repo, repo, paymentVerifier, cfg.ChatPrice, cfg.JobLinkPrice)
	chatHandler := NewChatHandler(repo, repo, repo, engine)
	profileHandler := NewProfileHandler(repo, repo, repo)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyLogin).Methods("POST")
	r.HandleFunc("/api/auth/nonce", authHandler.Nonce).Methods("GET")
	r.HandleFunc("/api/auth/wallet", authHandler.WalletLogin).Methods("POST")
	r.HandleFunc("/api/auth/demo", authHandler.DemoLogin).Methods("POST")
	r.HandleFunc("/api/jobs", jobsHandler.ListJobs).Methods("GET")
	r.HandleFunc("/api/jobs/{id:[0-9]+}", jobsHandler.GetJob).Methods("GET")
	r.HandleFunc("/api/payments/callback", paymentsHandler.Callback).Methods("POST")

	// Protected routes
	private := r.PathPrefix("/api").Subrouter()
	private.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	private.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	private.HandleFunc("/jobs/{id:[0-9]+}/interest", jobsHandler.SetInterest).Methods("POST")
	private.HandleFunc("/jobs/{id:[0-9]+}/link", jobsHandler.CreateLink).Methods("POST")
	private.HandleFunc("/jobs/{id:[0-9]+}/link/complete", jobsHandler.CompleteLink).Methods("POST")

	private.HandleFunc("/payments/initiate", paymentsHandler.Initiate).Methods("POST")
	private.HandleFunc("/payments/confirm", paymentsHandler.Confirm).Methods("POST")
	private.HandleFunc("/payments/{reference}", paymentsHandler.GetByReference).Methods("GET")

	private.HandleFunc("/chat", chatHandler.CreateChat).Methods("POST")
	private.HandleFunc("/chat", chatHandler.ListChats).Methods("GET")
	private.HandleFunc("/chat/{id:[0-9]+}", chatHandler.GetChat).Methods("GET")
	private.HandleFunc("/chat/{id:[0-9]+}/messages", chatHandler.SendMessage).Methods("POST")

	private.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	private.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")
	private.HandleFunc("/profile/stats", profileHandler.GetStats).Methods("GET")
	private.HandleFunc("/profile/transactions", profileHandler.GetTransactions).Methods("GET")
	private.HandleFunc("/profile/links", profileHandler.GetLinks).Methods("GET")

	return r
}
