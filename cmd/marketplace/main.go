package main

import (
	"villagestay/internal/marketplace"
	"villagestay/pkg/app"
	"villagestay/pkg/config"
	"villagestay/pkg/jwt"
)

func main() {
	cfg := config.Load(marketplace.ServiceName)

	if err := cfg.ValidateAPI(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.Log.Info("Starting Marketplace service")
	cfg.SetMongo()
	cfg.SetRedis()

	dispatcher, stopNotifier, err := marketplace.NewNotifier(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to start notifications", "error", err)
	}

	handlers := marketplace.NewHandlers(cfg, marketplace.Dependencies{
		Repos:    marketplace.MongoRepositories(cfg),
		Tokens:   jwt.New(cfg.JWTSecret, jwt.DefaultTTL),
		Notifier: dispatcher,
	})

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers)
	serverApp.OnShutdown(stopNotifier)
	serverApp.Run()
}
