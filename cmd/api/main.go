package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-makerstock/internal/handler"
	"go-makerstock/internal/ledger"
	"go-makerstock/internal/middleware"
	"go-makerstock/internal/model"
	"go-makerstock/internal/repository"
	"go-makerstock/internal/service"
	"go-makerstock/internal/ws"
	"go-makerstock/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.InventoryItem{},
		&model.InventoryLot{},
		&model.LedgerEvent{},
		&model.ProductionBatch{},
	)

	// 3. Seed default organization and admin user
	seedOrgAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	itemRepo := repository.NewItemRepo(db)
	lotRepo := repository.NewLotRepo(db)
	eventRepo := repository.NewEventRepo(db)
	userRepo := repository.NewUserRepo(db)
	batchRepo := repository.NewBatchRepo(db)

	ledgerStore := repository.NewStore(db)
	engine := ledger.NewEngine(ledgerStore)

	invService := service.NewInventoryService(itemRepo, lotRepo, eventRepo, engine, wsHub)
	batchService := service.NewBatchService(batchRepo, ledgerStore, engine, wsHub)
	dashService := service.NewDashboardService(itemRepo, eventRepo)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)

	invHandler := handler.NewInventoryHandler(invService)
	batchHandler := handler.NewBatchHandler(batchService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "MakerStock v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/reset-password", authHandler.ResetPassword)
	protected.Post("/auth/heartbeat", authHandler.Heartbeat)

	// Dashboard Routes
	protected.Get("/dashboard/stats", dashHandler.GetStats)
	protected.Get("/dashboard/low-stock", dashHandler.GetLowStock)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// Inventory Routes. Every stock movement goes through /items/:id/adjust.
	protected.Get("/items", invHandler.GetItems)
	protected.Post("/items", invHandler.CreateItem)
	protected.Get("/items/:id", invHandler.GetItem)
	protected.Put("/items/:id", invHandler.UpdateItem)
	protected.Post("/items/:id/adjust", invHandler.Adjust)
	protected.Get("/items/:id/lots", invHandler.GetLots)
	protected.Get("/items/:id/events", invHandler.GetEvents)
	protected.Get("/items/:id/sync", invHandler.CheckSync)
	protected.Get("/lots/expiring", invHandler.GetExpiringLots)

	// Production Batch Routes
	protected.Get("/batches", batchHandler.List)
	protected.Post("/batches", batchHandler.Create)
	protected.Get("/batches/:id", batchHandler.Get)
	protected.Post("/batches/:id/complete", batchHandler.Complete)

	// User Management Routes (ADMIN only for writes)
	protected.Get("/users", userHandler.List)
	protected.Post("/users", middleware.RequireRole(model.RoleAdmin), userHandler.Create)
	protected.Put("/users/:id", middleware.RequireRole(model.RoleAdmin), userHandler.Update)
	protected.Delete("/users/:id", middleware.RequireRole(model.RoleAdmin), userHandler.Delete)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedOrgAndAdmin creates the default organization and admin user if they
// don't exist yet.
func seedOrgAndAdmin(db *gorm.DB) {
	var org model.Organization
	if err := db.Where("name = ?", "Default Workshop").First(&org).Error; err != nil {
		org = model.Organization{
			Name:           "Default Workshop",
			Timezone:       "UTC",
			TrackInventory: true,
		}
		org.CreatedBy = "system"
		if err := db.Create(&org).Error; err != nil {
			log.Printf("Warning: Failed to create default organization: %v", err)
			return
		}
		log.Println("✅ Default organization created")
	}

	userRepo := repository.NewUserRepo(db)
	if _, err := userRepo.FindByEmail("admin@example.com"); err != nil {
		admin := &model.User{
			OrganizationID: org.ID,
			Email:          "admin@example.com",
			FullName:       "Administrator",
			Role:           model.RoleAdmin,
			IsActive:       true,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("✅ Admin user created: admin@example.com / admin123")
		}
	}
}
