package main

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/intai-app/intai_backend/config"
	"github.com/intai-app/intai_backend/controllers"
	"github.com/intai-app/intai_backend/middleware"
	"github.com/intai-app/intai_backend/repositories"
	"github.com/intai-app/intai_backend/routes"
	"github.com/intai-app/intai_backend/services"
	"github.com/intai-app/intai_backend/store"
	"github.com/intai-app/intai_backend/utils"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	authConfig := config.LoadAuthConfig()

	// Connect to Redis; when unavailable the challenge and session stores
	// run in-process, which is fine for a single instance.
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	var challenges store.ChallengeStore
	var sessionStore services.SessionStore
	if redisClient != nil {
		challenges = store.NewRedisStore(redisClient)
		sessionStore = services.NewRedisSessionStore(redisClient)
	} else {
		memChallenges := store.NewMemoryStore()
		challenges = memChallenges
		sessionStore = services.NewMemorySessionStore()

		// The in-process store has no TTL machinery; sweep settled
		// challenges periodically so the map does not grow unbounded.
		go func() {
			for {
				time.Sleep(time.Minute)
				memChallenges.PurgeExpired(time.Now())
			}
		}()
	}

	sessions := services.NewSessionService(sessionStore, services.GetJWTSecret(), authConfig.SessionTTL)

	var smsGateway utils.SmsGateway
	if os.Getenv("SMS_USERNAME") != "" {
		smsGateway = utils.NewSMSService()
	} else {
		log.Println("Warning: SMS_USERNAME not set, OTP codes will be logged instead of sent")
		smsGateway = utils.NewLogSmsGateway()
	}

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.CORSWithConfig())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"https://app.intai.co.il"},
		AllowInlineJS:  false,
		AllowEval:      false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "IntAI Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		challengeBackend := "memory"
		if redisClient != nil {
			challengeBackend = "redis"
		}
		return c.JSON(200, map[string]string{
			"status":     "healthy",
			"database":   "connected",
			"challenges": challengeBackend,
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	auditSink := repositories.NewAuditSink(client)

	// Initialize controllers
	authController := controllers.NewAuthController(userRepo, challenges, sessions, smsGateway, auditSink, authConfig)

	routes.RegisterAuthRoutes(e, authController, sessions)

	defer config.CloseRedis()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
