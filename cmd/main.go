package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Moosa-5616/Library-management-system/internal/handlers"
	"github.com/Moosa-5616/Library-management-system/internal/models"
	"github.com/Moosa-5616/Library-management-system/internal/repositories"
	"github.com/Moosa-5616/Library-management-system/internal/seed"
	"github.com/Moosa-5616/Library-management-system/internal/services"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// The ledger keeps transaction rows after their book is removed, so
		// book_id is a plain reference, not a DB-level foreign key.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get generic DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)

	catalogService := services.NewCatalogService(db, bookRepo, txnRepo)
	circulationService := services.NewCirculationService(db, userRepo, bookRepo, txnRepo)
	directoryService := services.NewDirectoryService(db, userRepo)

	if os.Getenv("SEED_ON_START") == "true" {
		var books int64
		if err := db.Model(&models.Book{}).Count(&books).Error; err != nil {
			log.Fatalf("failed to inspect catalog: %v", err)
		}
		if books == 0 {
			if err := seed.Load(db, catalogService, circulationService, time.Now().UTC()); err != nil {
				log.Fatalf("failed to seed database: %v", err)
			}
		} else {
			log.Printf("[INFO] seed: catalog already has %d books, skipping", books)
		}
	}

	router := gin.Default()

	handlers.RegisterRoutes(router, catalogService, circulationService, directoryService)

	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("Starting server on %s", serverAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
