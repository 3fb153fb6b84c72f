package main

import (
	"log"

	"billing-dashboard-api/internal/cache"
	"billing-dashboard-api/internal/config"
	"billing-dashboard-api/internal/database"
	"billing-dashboard-api/internal/handlers"
	"billing-dashboard-api/internal/routes"
	"billing-dashboard-api/internal/zoho"
)

func main() {
	cfg := config.Load()

	// Init database
	database.InitDB(cfg.DatabasePath)

	// One shared cache instance for the whole process; handlers get it injected
	store := cache.New[any](cache.Config{
		DefaultTTL:    cfg.CacheTTL,
		SweepInterval: cfg.CacheSweepInterval,
	})
	defer store.Close()

	// Zoho Books client (access tokens refresh themselves)
	books := zoho.NewClient(zoho.Config{
		ClientID:       cfg.Zoho.ClientID,
		ClientSecret:   cfg.Zoho.ClientSecret,
		RefreshToken:   cfg.Zoho.RefreshToken,
		OrganizationID: cfg.Zoho.OrganizationID,
		APIBaseURL:     cfg.Zoho.APIBaseURL,
		AccountsURL:    cfg.Zoho.AccountsURL,
	})

	dashboard := &handlers.DashboardHandler{
		Cache: store,
		Books: books,
		TTL:   cfg.CacheTTL,
	}

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes(dashboard)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server starting on port %s", port)
	log.Println("API endpoints:")
	log.Println("  POST   /api/login")
	log.Println("  GET    /api/projects")
	log.Println("  GET    /api/invoices")
	log.Println("  GET    /api/zoho/status")
	log.Println("  GET    /api/projects/:id/meta")
	log.Println("  PUT    /api/projects/:id/meta")
	log.Println("  GET    /api/projects/:id/projections")
	log.Println("  PUT    /api/projects/:id/projections")
	log.Println("  POST   /api/migrate")
	log.Println("  GET    /api/cache/stats")
	log.Println("  DELETE /api/cache")
	log.Println("  GET    /health")

	if err := ginRoutes.Run(port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
