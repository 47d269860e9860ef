package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"dispatch/cmd"
	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres/driverrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/routerepo"
	"dispatch/internal/adapters/out/postgres/taskrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()

	gormDB := mustConnectDB(configs)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build composition root: %v", err)
	}

	jobManager := app.CreateJobManager(logger)
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start background jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(&app, configs.HTTPPort)
}

func getConfigs() cmd.Config {
	config := cmd.Config{
		HTTPPort:             goDotEnvVariable("HTTP_PORT"),
		DBHost:               goDotEnvVariable("DB_HOST"),
		DBPort:               goDotEnvVariable("DB_PORT"),
		DBUser:               goDotEnvVariable("DB_USER"),
		DBPassword:           goDotEnvVariable("DB_PASSWORD"),
		DBName:               goDotEnvVariable("DB_NAME"),
		DBSslMode:            goDotEnvVariable("DB_SSLMODE"),
		OfferTokenSecret:     goDotEnvVariable("OFFER_TOKEN_SECRET"),
		OfferValidityMinutes: goDotEnvVariable("OFFER_VALIDITY_MINUTES"),
		OperatorPhone:        goDotEnvVariable("OPERATOR_PHONE"),
		NotifyServiceURL:     goDotEnvVariable("NOTIFY_SERVICE_URL"),
		SettleServiceURL:     goDotEnvVariable("SETTLE_SERVICE_URL"),
		CdnBaseURL:           goDotEnvVariable("CDN_BASE_URL"),
		PayoutPerStopRate:    goDotEnvVariable("PAYOUT_PER_STOP_RATE"),
		PayoutPerMileRate:    goDotEnvVariable("PAYOUT_PER_MILE_RATE"),
		PayoutPerStopMinutes: goDotEnvVariable("PAYOUT_PER_STOP_MINUTES"),
	}
	return config
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func mustConnectDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = gormDB.AutoMigrate(
		&orderrepo.OrderDTO{},
		&routerepo.RouteDTO{},
		&taskrepo.TaskDTO{},
		&driverrepo.DriverDTO{},
		&driverrepo.AvailabilityWindowDTO{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return gormDB
}

func startWebServer(app *cmd.CompositionRoot, port string) {
	server := httpin.NewServer(
		app.Normalizer(),
		app.CreateProcessTaskEventCommandHandler(),
		app.CreateRespondToOfferCommandHandler(),
		app.CreateRunOfferCascadeCommandHandler(),
		app.CreateSettleCompletedWorkCommandHandler(),
		app.CreateGetEscalatedRoutesQueryHandler(),
		app.CreateGetActiveOffersQueryHandler(),
		app.UnitOfWorkFactory(),
	)

	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	server.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
