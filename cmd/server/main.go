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

	"alphavault-backend/internal/api"
	"alphavault-backend/internal/config"
	"alphavault-backend/internal/crypto"
	"alphavault-backend/internal/handlers"
	"alphavault-backend/internal/integrations"
	"alphavault-backend/internal/integrations/drive"
	"alphavault-backend/internal/integrations/gemini"
	api_models "alphavault-backend/internal/models"
	"alphavault-backend/internal/services"
	"alphavault-backend/internal/store/memory"
)

func main() {
	log.Println("Starting AlphaVault Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Session Store
	// All conversation state is in-memory and dies with the process;
	// the encrypted credential file is the only thing that persists.
	sessionStore := memory.NewMemoryStore()
	log.Println("In-memory session store initialized.")

	// --- Create AEAD Cipher for Credential Encryption ---
	aead, err := crypto.NewAESGCM(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("FATAL: Failed to create AES-GCM cipher: %v", err)
	}
	log.Println("AES-GCM cipher initialized.")

	// --- Initialize Provider Clients ---
	geminiClient := gemini.NewClient(cfg.GeminiModel)
	driveClient := drive.NewClient()
	log.Printf("Provider clients initialized (model: %s).", cfg.GeminiModel)

	// --- Initialize Integration Registry ---
	intRegistry := integrations.NewRegistry()
	intRegistry.Register(string(api_models.ServiceTypeGemini), gemini.NewIntegration(geminiClient))
	intRegistry.Register(string(api_models.ServiceTypeDrive), drive.NewIntegration(driveClient))
	log.Println("IntegrationRegistry initialized and populated.")

	// 3. Initialize Services
	credentialService := services.NewCredentialsService(aead, intRegistry, cfg.CredStorePath, cfg.GeminiAPIKey)
	log.Println("CredentialsService initialized.")
	chatService := services.NewChatService(sessionStore, geminiClient, credentialService, cfg.JWTSecret, cfg.TokenExpiration)
	log.Println("ChatService initialized.")
	ingestionService := services.NewIngestionService(sessionStore, driveClient)
	log.Println("IngestionService initialized.")
	extractionService := services.NewExtractionService(sessionStore, geminiClient, credentialService)
	log.Println("ExtractionService initialized.")

	// --- Initialize Handlers ---
	sessionHandler := handlers.NewSessionHandlers(chatService)
	log.Println("SessionHandler initialized.")
	chatHandler := handlers.NewChatHandlers(chatService)
	log.Println("ChatHandler initialized.")
	documentHandler := handlers.NewDocumentHandlers(ingestionService)
	log.Println("DocumentHandler initialized.")
	extractionHandler := handlers.NewExtractionHandlers(extractionService)
	log.Println("ExtractionHandler initialized.")
	credentialHandler := handlers.NewCredentialsHandler(credentialService)
	log.Println("CredentialsHandler initialized.")

	// 4. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		SessionHandler:     sessionHandler,
		ChatHandler:        chatHandler,
		DocumentHandler:    documentHandler,
		ExtractionHandler:  extractionHandler,
		CredentialsHandler: credentialHandler,
		Config:             cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Production hardening: Set timeouts to avoid Slowloris attacks
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	// Run server in a goroutine so it doesn't block
	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	// Wait for interrupt signal
	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	// Create a deadline context for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		log.Fatal("Forcing shutdown due to error.")
	}

	log.Println("Server shutdown complete.")
}
