package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intai-app/intai_backend/controllers"
	"github.com/intai-app/intai_backend/middleware"
	"github.com/intai-app/intai_backend/services"
)

// RegisterAuthRoutes sets up the phone/OTP authentication endpoints.
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, sessions *services.SessionService) {
	auth := e.Group("/api/auth")

	// Public endpoints
	auth.POST("/send-otp", authController.SendOTP)
	auth.POST("/verify-otp", authController.VerifyOTP)

	// Logout tolerates a missing session; Current answers with a null user
	// rather than 401 so the dashboard can probe quietly on load.
	auth.POST("/logout", authController.Logout)
	auth.GET("/current", authController.Current)

	// Dashboard APIs hang off this group; everything under it requires a
	// live session.
	protected := e.Group("/api")
	protected.Use(middleware.RequireSession(sessions))
	protected.GET("/session/ping", func(c echo.Context) error {
		session := middleware.SessionFromContext(c)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": http.StatusOK,
			"data":   map[string]string{"sessionId": session.ID, "userId": session.UserID},
		})
	})
}
