package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pos-service/internal/api"
	"pos-service/internal/credentials"
	"pos-service/internal/events"
	"pos-service/internal/repository"
	"pos-service/internal/s3"
	"pos-service/internal/service"
	"pos-service/internal/tracing"
	_ "pos-service/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables")
	}

	api.SetupGlobalLogger("pos-service")

	shutdownTracer, err := tracing.InitTracerProvider("pos-service")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	db := connectDB()
	defer db.Close()

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	mailPublisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	log.Println("Successfully connected to NATS.")

	presigner, err := s3.NewFilePresigner()
	if err != nil {
		log.Fatalf("Failed to configure picture storage: %v", err)
	}

	userRepo := repository.NewPostgresUserRepository(db)
	tableRepo := repository.NewPostgresTableRepository(db)
	customerRepo := repository.NewPostgresCustomerRepository(db)
	orderRepo := repository.NewPostgresOrderRepository(db)

	userService := service.NewUserService(userRepo, tableRepo, customerRepo, mailPublisher, credentials.NewToken)
	orderService := service.NewOrderService(orderRepo, tableRepo)

	authHandler := api.NewAuthHandler(userService)
	userHandler := api.NewUserHandler(userService, presigner)
	tableHandler := api.NewTableHandler(tableRepo, userService)
	orderHandler := api.NewOrderHandler(orderService)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "pos-service"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/activate", authHandler.Activate)
	authRoutes.Post("/password_reset", authHandler.RequestPasswordReset)
	authRoutes.Put("/password_reset", authHandler.CompletePasswordReset)
	authRoutes.Post("/logout", api.AuthMiddleware(userService), authHandler.Logout)

	userRoutes := v1.Group("/users")
	userRoutes.Use(api.AuthMiddleware(userService))
	userRoutes.Get("/me", userHandler.GetProfile)
	userRoutes.Put("/me", userHandler.UpdateProfile)
	userRoutes.Post("/me/picture", userHandler.RequestPictureUpload)
	userRoutes.Post("/me/token", userHandler.RotateAuthenticationToken)

	tableRoutes := v1.Group("/tables")
	tableRoutes.Use(api.AuthMiddleware(userService))
	tableRoutes.Get("/", tableHandler.List)
	tableRoutes.Post("/", tableHandler.Create)
	tableRoutes.Post("/:id/serve", tableHandler.Serve)
	tableRoutes.Delete("/:id/serve", tableHandler.Clear)
	tableRoutes.Get("/:id/orders", orderHandler.ListByTable)
	tableRoutes.Post("/:id/orders", orderHandler.Create)

	orderRoutes := v1.Group("/orders")
	orderRoutes.Use(api.AuthMiddleware(userService))
	orderRoutes.Get("/", orderHandler.List)
	orderRoutes.Patch("/:id", orderHandler.Update)
	orderRoutes.Delete("/:id", orderHandler.Delete)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8001"
	}

	log.Printf("Listening pos-service on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func connectDB() *sqlx.DB {
	db, err := sqlx.Connect("pgx", databaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleMigrations() {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", databaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}

func databaseURL() string {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)
}
