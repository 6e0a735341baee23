package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tourista/internal/auth"
	apperrors "tourista/internal/errors"
	"tourista/internal/handler"
	"tourista/internal/middleware"
	"tourista/internal/model"
	"tourista/internal/repository"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	userRepo repository.UserRepository,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	tourHandler *handler.TourHandler,
	reviewHandler *handler.ReviewHandler,
	viewHandler *handler.ViewHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler

	protect := []echo.MiddlewareFunc{
		middleware.TokenParser(jwtService),
		middleware.LoadUser(userRepo),
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Rendered pages. Best-effort login so templates know the visitor.
	views := e.Group("", middleware.IsLoggedIn(jwtService, userRepo))
	views.GET("/", viewHandler.Overview)
	views.GET("/tour/:slug", viewHandler.Tour)
	views.GET("/login", viewHandler.LoginForm)
	views.GET("/me", viewHandler.Account)
	views.POST("/submit-user-data", viewHandler.SubmitUserData)

	api := e.Group("/api/v1")

	// Auth and profile routes
	users := api.Group("/users")
	users.POST("/signup", authHandler.Signup)
	users.POST("/login", authHandler.Login)
	users.GET("/logout", authHandler.Logout)
	users.POST("/forgotPassword", authHandler.ForgotPassword)
	users.PATCH("/resetPassword/:token", authHandler.ResetPassword)

	profile := users.Group("", protect...)
	profile.PATCH("/updatePassword", authHandler.UpdatePassword)
	profile.GET("/me", userHandler.GetMe)
	profile.PATCH("/updateMe", userHandler.UpdateMe)
	profile.DELETE("/deleteMe", userHandler.DeleteMe)

	adminUsers := users.Group("", append(protect, middleware.RestrictTo(model.RoleAdmin))...)
	adminUsers.GET("", userHandler.ListUsers)
	adminUsers.POST("", userHandler.CreateUser)
	adminUsers.GET("/:id", userHandler.GetUser)
	adminUsers.PATCH("/:id", userHandler.UpdateUser)
	adminUsers.DELETE("/:id", userHandler.DeleteUser)

	// Tour routes
	tours := api.Group("/tours")
	tours.GET("", tourHandler.ListTours)
	tours.GET("/top-5-cheap", tourHandler.TopCheapTours)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", tourHandler.ToursWithin)
	tours.GET("/distances/:latlng/unit/:unit", tourHandler.Distances)
	tours.GET("/:id", tourHandler.GetTour)
	tours.GET("/stats", tourHandler.TourStats,
		append(protect, middleware.RestrictTo(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide))...)

	tourAdmin := tours.Group("", append(protect, middleware.RestrictTo(model.RoleAdmin, model.RoleLeadGuide))...)
	tourAdmin.POST("", tourHandler.CreateTour)
	tourAdmin.PATCH("/:id", tourHandler.UpdateTour)
	tourAdmin.DELETE("/:id", tourHandler.DeleteTour)

	// Review routes, flat and nested under a tour
	tours.GET("/:tourId/reviews", reviewHandler.ListReviews)
	tours.POST("/:tourId/reviews", reviewHandler.CreateReview,
		append(protect, middleware.RestrictTo(model.RoleUser))...)

	reviews := api.Group("/reviews", protect...)
	reviews.GET("", reviewHandler.ListReviews)
	reviews.POST("", reviewHandler.CreateReview, middleware.RestrictTo(model.RoleUser))
	reviews.GET("/:id", reviewHandler.GetReview)
	reviews.PATCH("/:id", reviewHandler.UpdateReview, middleware.RestrictTo(model.RoleUser, model.RoleAdmin))
	reviews.DELETE("/:id", reviewHandler.DeleteReview, middleware.RestrictTo(model.RoleUser, model.RoleAdmin))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
