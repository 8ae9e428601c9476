package main

import (
	"context"

	"github.com/anonto42/tracle/internal/router"
	"github.com/anonto42/tracle/pkg/config"
	"github.com/anonto42/tracle/pkg/firebase"
	"github.com/anonto42/tracle/pkg/logger"
	"github.com/anonto42/tracle/web"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB(log) // Ensure database connections are closed when main exits

	// Firebase sign-in is optional
	var verifier firebase.IDTokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath, log)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		verifier = firebaseApp.AuthClient
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	// Setup global middleware
	config.SetupMiddleware(e, cfg, log)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, router.Deps{
		Config:   cfg,
		DB:       db,
		Emails:   renderer,
		Firebase: verifier,
		Log:      log,
	}); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Start server
	log.WithField("port", cfg.Port).Info("Starting server")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.WithError(err).Error("Server stopped")
	}
}
