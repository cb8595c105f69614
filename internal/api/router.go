package api

import (
	"log"
	"net/http"
	"time"

	"alphavault-backend/internal/config"
	"alphavault-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router
// setup, primarily handlers and configuration.
type RouterDependencies struct {
	SessionHandler     *handlers.SessionHandlers
	ChatHandler        *handlers.ChatHandlers
	DocumentHandler    *handlers.DocumentHandlers
	ExtractionHandler  *handlers.ExtractionHandlers
	CredentialsHandler *handlers.CredentialsHandler
	Config             *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.SessionHandler == nil {
		panic("SessionHandler dependency is nil in router setup")
	}
	r.Post("/v1/sessions", deps.SessionHandler.HandleCreateSession)

	// --- Authenticated Routes (Session Token Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Get("/session", deps.SessionHandler.HandleGetSession)
		r.Delete("/session", deps.SessionHandler.HandleEndSession)

		// --- Mount Chat Routes ---
		if deps.ChatHandler != nil {
			r.Route("/chat", func(r chi.Router) {
				r.Post("/messages", deps.ChatHandler.HandleSendMessage)
				r.Post("/shortcuts", deps.ChatHandler.HandleShortcut)
				r.Post("/synthesize", deps.ChatHandler.HandleSynthesize)
				r.Patch("/settings", deps.ChatHandler.HandleUpdateSettings)
				r.Get("/transcript", deps.ChatHandler.HandleExportTranscript)
			})
		} else {
			log.Println("WARN: ChatHandler dependency is nil, skipping /v1/chat routes.")
		}

		// --- Mount Document Routes ---
		if deps.DocumentHandler != nil {
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", deps.DocumentHandler.HandleListDocuments)
				r.Post("/upload", deps.DocumentHandler.HandleUpload)
				r.Post("/drive/import", deps.DocumentHandler.HandleDriveImport)
				r.Patch("/{documentID}/active", deps.DocumentHandler.HandleSetDocumentActive)
				r.Post("/deselect", deps.DocumentHandler.HandleDeselectAll)
			})
		} else {
			log.Println("WARN: DocumentHandler dependency is nil, skipping /v1/documents routes.")
		}

		// --- Mount Extraction Route ---
		if deps.ExtractionHandler != nil {
			r.Post("/extract", deps.ExtractionHandler.HandleExtract)
		} else {
			log.Println("WARN: ExtractionHandler dependency is nil, skipping /v1/extract route.")
		}

		// --- Mount Credentials Routes ---
		if deps.CredentialsHandler != nil {
			r.Route("/credentials", func(r chi.Router) {
				r.Put("/", deps.CredentialsHandler.HandleSetCredential)
				r.Delete("/", deps.CredentialsHandler.HandleDeleteCredential)
				r.Post("/test", deps.CredentialsHandler.HandleTestCredential)
			})
		} else {
			log.Println("WARN: CredentialsHandler dependency is nil, skipping /v1/credentials routes.")
		}
	})

	return r
}
