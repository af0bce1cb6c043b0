package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"focusquest/internal/config"
	"focusquest/internal/logger"
	"focusquest/internal/models"
	"focusquest/internal/security"
)

// devtoken mints a bearer token for local testing against the API
func main() {
	subject := flag.String("sub", "", "Parent or child id (required)")
	role := flag.String("role", string(models.RoleParent), "Token role: parent or child")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "Error: -sub flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	tokens, err := security.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Fatal("JWT_SECRET is not usable")
	}

	token, err := tokens.Issue(*subject, models.Role(*role), *ttl)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to issue token")
	}
	fmt.Println(token)
}
