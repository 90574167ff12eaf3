package main

import (
	"log"
	"net/http"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"student-connect/internal/config"
	"student-connect/internal/database"
	"student-connect/internal/handlers"
	"student-connect/internal/services"
	"student-connect/internal/utils"
)

func main() {
	cfg := config.LoadServerConfig()

	db := database.NewDatabase()

	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiration, cfg.ResetExpiration)

	mailer := services.NewMailer(cfg)
	if _, ok := mailer.(*services.Outbox); ok {
		log.Println("SMTP_HOST not set, reset links will be logged")
	}

	router := handlers.NewRouter(handlers.Deps{
		DB:           db,
		JWT:          jwtUtil,
		Mailer:       mailer,
		ResetLimiter: rate.NewLimiter(rate.Every(cfg.ResetRateLimit), 3),
		PublicURL:    cfg.PublicURL,
		ResetBaseURL: cfg.ResetLinkBaseURL,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	log.Printf("Stub API running on port %s", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, corsHandler.Handler(router)))
}
