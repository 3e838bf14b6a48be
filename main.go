package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/spirow73/study-ai-pro/config"
	"github.com/spirow73/study-ai-pro/handlers"
	"github.com/spirow73/study-ai-pro/middleware"
	"github.com/spirow73/study-ai-pro/services"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	// Initialize database connection
	config.Connect()

	h := &handlers.DBHandler{
		DB:      config.Database,
		AI:      services.NewAIServiceFromEnv(),
		Storage: services.NewStorageServiceFromEnv(),
	}
	mux := http.NewServeMux()

	// Session
	mux.HandleFunc("POST /api/session", h.CreateSession)

	// Generation
	mux.HandleFunc("POST /api/generate", middleware.RequireUser(h.GenerateFromDocuments))
	mux.HandleFunc("POST /api/topics/{topic}/generate", middleware.RequireUser(h.GenerateForTopic))

	// Study session
	mux.HandleFunc("GET /api/study", middleware.RequireUser(h.GetStudySession))
	mux.HandleFunc("POST /api/study/answer", middleware.RequireUser(h.SubmitAnswer))

	// Statistics
	mux.HandleFunc("GET /api/stats", middleware.RequireUser(h.GetStats))
	mux.HandleFunc("DELETE /api/progress", middleware.RequireUser(h.ClearHistory))

	// Content management
	mux.HandleFunc("GET /api/questions", middleware.RequireUser(h.ListQuestions))
	mux.HandleFunc("GET /api/topics", middleware.RequireUser(h.ListTopics))
	mux.HandleFunc("DELETE /api/topics/{topic}", middleware.RequireUser(h.DeleteTopic))
	mux.HandleFunc("DELETE /api/questions", middleware.RequireUser(h.WipeAll))

	// Documents
	mux.HandleFunc("GET /api/documents", middleware.RequireUser(h.ListDocuments))
	mux.HandleFunc("GET /api/documents/{documentID}", middleware.RequireUser(h.GetDocument))

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	http.ListenAndServe(serverAddr, corsHandler)
}
