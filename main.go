package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Govind-10090/bend-the-bar-gym/controllers"
	"github.com/Govind-10090/bend-the-bar-gym/database"
	"github.com/Govind-10090/bend-the-bar-gym/middleware"
	"github.com/Govind-10090/bend-the-bar-gym/models"
	"github.com/Govind-10090/bend-the-bar-gym/routes"
	"github.com/Govind-10090/bend-the-bar-gym/store"
	"github.com/Govind-10090/bend-the-bar-gym/utils"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present (do not overwrite already-set environment variables).
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	// Missing secrets are a configuration error: fatal at startup,
	// never a per-request failure.
	requiredEnvVars := []string{
		"DB_HOST", "DB_USER", "DB_PASS", "DB_NAME",
		"RAZORPAY_KEY_SECRET", "RAZORPAY_WEBHOOK_SECRET",
		"EMAIL_USER", "EMAIL_PASS",
	}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto-migrate only in development to avoid accidental production schema changes
	if strings.ToLower(os.Getenv("ENV")) == "development" {
		log.Println("Running in development mode - performing auto-migration")
		if err := db.AutoMigrate(&models.Payment{}); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		log.Println("Auto-migration completed successfully")
	} else {
		log.Println("Running in production mode - skipping auto-migration")
	}

	paymentStore := store.NewPaymentStore(db)
	verifier := utils.NewSignatureVerifier(
		os.Getenv("RAZORPAY_KEY_SECRET"),
		os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
	)
	mailer := utils.NewMailer(
		os.Getenv("SMTP_HOST"),
		os.Getenv("SMTP_PORT"),
		os.Getenv("EMAIL_USER"),
		os.Getenv("EMAIL_PASS"),
	)

	// Optional Redis backend for the webhook limiter (cross-process
	// counters behind a load balancer); nil means in-memory.
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisClient := middleware.NewRedisClient(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASS"), redisDB)
	webhookLimiter := middleware.NewWebhookLimiter(500, time.Hour, []string{"127.0.0.1"}, redisClient)

	paymentController := controllers.NewPaymentController(paymentStore, verifier, mailer)
	router := routes.InitRouter(paymentController, webhookLimiter)

	// Wrap router with global middleware in recommended order
	// Logging -> Security headers / CORS -> Request ID -> Max Body -> Timeout -> Recovery
	handler := middleware.RequestLogMiddleware(
		middleware.SecurityHeadersMiddleware(
			middleware.RequestIDMiddleware(
				middleware.MaxBodyMiddleware(
					middleware.TimeoutMiddleware(
						middleware.RecoveryMiddleware(router),
					),
				),
			),
		),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server exited")
}
