package FiberConfig

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"

	"FuelDesk/Controllers"
	"FuelDesk/Models"
	"FuelDesk/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	authHandler := Controllers.NewAuthHandler(db)
	cashController := Controllers.NewCashController(db)
	depoController := Controllers.NewDepoController(db)
	tripHandler := Controllers.NewTripHandler(db)
	saleHandler := Controllers.NewSaleHandler(db)
	paymentHandler := Controllers.NewPaymentHandler(db)
	accountHandler := Controllers.NewAccountHandler(db)
	customerHandler := Controllers.NewCustomerHandler(db)
	vehicleHandler := Controllers.NewVehicleHandler(db)
	reportHandler := Controllers.NewReportHandler(db)
	logHandler := Controllers.NewLogHandler(db)

	// API group
	api := app.Group("/api")

	// Auth routes
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/logout", authHandler.Logout)
	api.Get("/auth/validate", authHandler.ValidateToken)
	api.Get("/auth/user", middleware.Verify(1), authHandler.User)
	api.Post("/auth/register", middleware.Verify(4), authHandler.Register)

	// Cash-in-hand ledger
	cash := api.Group("/cash", middleware.Verify(1))
	cash.Get("/", cashController.GetCashEntries)
	cash.Get("/balance", cashController.GetCashBalance)
	cash.Post("/", middleware.Verify(3), cashController.CreateCashEntry)
	cash.Delete("/:id", middleware.Verify(3), cashController.ReverseCashEntry)

	// Depot routes
	depos := api.Group("/depos", middleware.Verify(1))
	depos.Get("/", depoController.GetDepos)
	depos.Get("/:id", depoController.GetDepo)
	depos.Get("/:id/pool", depoController.GetDepoPool)
	depos.Get("/:id/balance", depoController.GetDepoBalance)
	depos.Post("/", middleware.Verify(3), depoController.CreateDepo)
	depos.Put("/:id", middleware.Verify(3), depoController.UpdateDepo)
	depos.Delete("/:id", middleware.Verify(4), depoController.DeleteDepo)

	// Trip routes
	trips := api.Group("/trips", middleware.Verify(1))
	trips.Get("/", tripHandler.GetTrips)
	trips.Get("/:id", tripHandler.GetTrip)
	trips.Post("/", middleware.Verify(3), tripHandler.CreateTrip)
	trips.Delete("/:id", middleware.Verify(3), tripHandler.DeleteTrip)

	// Sale routes
	sales := api.Group("/sales", middleware.Verify(1))
	sales.Get("/", saleHandler.GetSales)
	sales.Post("/", middleware.Verify(3), saleHandler.RecordSale)
	sales.Delete("/:id", middleware.Verify(3), saleHandler.DeleteSale)

	// Payment and recovery routes
	payments := api.Group("/payments", middleware.Verify(1))
	payments.Get("/", paymentHandler.GetPayments)
	payments.Post("/", middleware.Verify(3), paymentHandler.CreatePayment)
	recoveries := api.Group("/recoveries", middleware.Verify(1))
	recoveries.Get("/", paymentHandler.GetRecoveries)
	recoveries.Post("/", middleware.Verify(3), paymentHandler.CreateRecovery)

	// Bank account routes
	accounts := api.Group("/accounts", middleware.Verify(1))
	accounts.Get("/", accountHandler.GetAccounts)
	accounts.Get("/:id", accountHandler.GetAccount)
	accounts.Post("/", middleware.Verify(3), accountHandler.CreateAccount)
	accounts.Post("/transfer", middleware.Verify(3), accountHandler.Transfer)
	accounts.Post("/:id/qr", middleware.Verify(3), accountHandler.UploadQR)
	accounts.Patch("/:id", middleware.Verify(3), accountHandler.UpdateAccount)
	accounts.Delete("/:id", middleware.Verify(4), accountHandler.DeleteAccount)

	// Customer routes
	customers := api.Group("/customers", middleware.Verify(1))
	customers.Get("/", customerHandler.GetCustomers)
	customers.Get("/:id", customerHandler.GetCustomer)
	customers.Get("/:id/statement", customerHandler.GetCustomerStatement)
	customers.Post("/", middleware.Verify(3), customerHandler.CreateCustomer)
	customers.Patch("/:id", middleware.Verify(3), customerHandler.UpdateCustomer)
	customers.Delete("/:id", middleware.Verify(4), customerHandler.DeleteCustomer)

	// Vehicle routes
	vehicles := api.Group("/vehicles", middleware.Verify(1))
	vehicles.Get("/", vehicleHandler.GetVehicles)
	vehicles.Get("/:id", vehicleHandler.GetVehicle)
	vehicles.Post("/", middleware.Verify(3), vehicleHandler.CreateVehicle)
	vehicles.Patch("/:id", middleware.Verify(3), vehicleHandler.UpdateVehicle)
	vehicles.Delete("/:id", middleware.Verify(4), vehicleHandler.DeleteVehicle)

	// Excel export routes
	reports := api.Group("/reports", middleware.Verify(1))
	reports.Get("/trips", reportHandler.ExportTrips)
	reports.Get("/sales", reportHandler.ExportSales)

	// Logs API routes
	app.Get("/api/logs", middleware.Verify(4), logHandler.GetLogs)
	app.Get("/api/logs/stats", middleware.Verify(4), logHandler.GetLogStats)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	engine := html.New("./Templates", ".html")
	// Html Template engine
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     Models.Settings.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("index", fiber.Map{})
	})

	SetupRoutes(app, Models.DB)

	// Serve uploaded QR images
	app.Static("/uploads", Models.Settings.UploadDir, fiber.Static{Compress: true})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	app.Listen(":" + port)
}
