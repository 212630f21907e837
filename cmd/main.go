package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/impulseml/impulseml-api/docs" // Import generated docs
	"github.com/impulseml/impulseml-api/internal/auth"
	"github.com/impulseml/impulseml-api/internal/config"
	"github.com/impulseml/impulseml-api/internal/controllers"
	"github.com/impulseml/impulseml-api/internal/crypto"
	"github.com/impulseml/impulseml-api/internal/database"
	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/middleware"
	"github.com/impulseml/impulseml-api/internal/models"
	"github.com/impulseml/impulseml-api/internal/services"
	"github.com/impulseml/impulseml-api/internal/statestore"
)

var (
	db            *gorm.DB
	configuration *config.Config

	oauthService *auth.OAuthService

	authController        *controllers.AuthController
	clientController      *controllers.ClientController
	integrationController *controllers.IntegrationController
	searchController      *controllers.SearchController
	webhookController     *controllers.WebhookController
	emailController       *controllers.EmailController
)

// @title ImpulseML API
// @version 1.0
// @description Product analytics backend for MercadoLibre Uruguay sellers
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Set JWT secret from configuration
	middleware.SetJWTSecret(configuration.JWTSecret)

	// Initialize database connection
	setupDatabase(configuration)

	// Initialize services and controllers
	setupServices(configuration)

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase initializes the database connection and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	dbConfig, err := database.FromURL(conf.DatabaseURL, conf.SQLitePath)
	checkPanicErr(err)

	db, err = database.InitDatabase(dbConfig)
	checkPanicErr(err)

	// Migrate the schema
	err = db.AutoMigrate(
		&models.User{},
		&models.MeliIntegration{},
		&models.Product{},
		&models.OAuthClient{},
		&models.OAuthCode{},
		&models.OAuthToken{},
	)
	checkPanicErr(err)

	return db
}

// setupServices wires the service layer and controllers
func setupServices(conf *config.Config) {
	states := setupStateStore(conf)

	cipher, err := crypto.NewTokenCipher(conf.TokenCipherKey)
	checkPanicErr(err)
	if !cipher.Enabled() {
		log.Warn("TOKEN_CIPHER_KEY not set, marketplace tokens are stored unencrypted")
	}

	marketClient := meli.NewClient(meli.Config{
		AppID:       conf.MeliAppID,
		AppSecret:   conf.MeliAppSecret,
		RedirectURL: conf.MeliRedirectURL,
		SiteID:      conf.MeliSiteID,
	})

	integrationService := services.NewIntegrationService(db, conf, marketClient, states, cipher)
	searchService := services.NewSearchService(db, marketClient, integrationService)
	emailService := services.NewEmailService(
		services.NewResendMailer(conf.ResendAPIKey), conf.EmailFrom, conf.DashboardURL)
	userService := services.NewUserService(db)
	clientService := services.NewClientService(db)

	oauthService = auth.NewOAuthService(db, conf.JWTSecret)

	authController = controllers.NewAuthController(userService, conf.JWTSecret)
	clientController = controllers.NewClientController(clientService)
	integrationController = controllers.NewIntegrationController(integrationService, conf.DashboardURL)
	searchController = controllers.NewSearchController(searchService)
	webhookController = controllers.NewWebhookController()
	emailController = controllers.NewEmailController(emailService)
}

// setupStateStore selects Redis when configured, in-memory otherwise
func setupStateStore(conf *config.Config) statestore.Store {
	if conf.RedisURL == "" {
		log.Info("REDIS_URL not set, using in-memory authorization state store")
		return statestore.NewMemoryStore()
	}

	store, err := statestore.NewRedisStore(conf.RedisURL)
	checkPanicErr(err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	checkPanicErr(store.Ping(ctx))

	log.Info("Using Redis authorization state store")
	return store
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	// Initialize Gin router
	router := gin.Default()

	// The dashboard runs on its own origin
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{configuration.DashboardURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Define routes
	setupRoutes(router)

	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// OAuth2 token endpoint for first-party clients
	router.POST("/oauth/token", oauthService.HandleToken)

	// Marketplace webhook receiver (no auth: the marketplace calls it)
	router.POST("/webhooks/meli", webhookController.Receive)

	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public but for auth purposes)
		authApi := v1.Group("/auth")
		{
			authApi.POST("/register", authController.Register)
			authApi.POST("/login", authController.Login)
		}

		// The marketplace redirects the browser here; identity comes from the
		// state binding, not from a bearer token
		v1.GET("/integrations/meli/callback", integrationController.Callback)

		// Protected routes (requires JWT authentication)
		protectedApi := v1.Group("")
		protectedApi.Use(middleware.JWTAuth())
		{
			protectedApi.GET("/integrations/meli/connect", integrationController.Connect)
			protectedApi.GET("/integrations/meli", integrationController.Status)
			protectedApi.DELETE("/integrations/meli", integrationController.Disconnect)

			protectedApi.POST("/search", searchController.Search)
			protectedApi.POST("/notifications/email", emailController.SendNotification)

			protectedApi.GET("/oauth/authorize", oauthService.HandleAuthorize)

			protectedApi.POST("/clients", clientController.CreateClient)
			protectedApi.GET("/clients", clientController.ListClients)
			protectedApi.DELETE("/clients/:id", clientController.DeleteClient)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "impulseml-api",
	})
}
