package main

import (
	"net/http"

	"github.com/esther-anierobi/bookIT/internal/api"
	apiMiddleware "github.com/esther-anierobi/bookIT/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(app.userService, app.sessionService, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	bookingHandler := api.NewBookingHandler(app.bookingService, app.logger)
	catalogHandler := api.NewCatalogHandler(app.catalogService, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.catalogService, app.logger)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.sessionService)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Catalog reads are public. A bearer token is honored when present
		// so admins see inactive listings.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthenticateOptional)
			r.Get("/services", catalogHandler.ListServices)
			r.Get("/services/{id}", catalogHandler.GetService)
			r.Get("/services/{id}/reviews", reviewHandler.ListServiceReviews)
			r.Get("/services/{id}/reviews/stats", reviewHandler.GetServiceStats)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)

			// Booking endpoints
			r.Post("/bookings", bookingHandler.CreateBooking)
			r.Get("/bookings", bookingHandler.ListBookings)
			r.Get("/bookings/{id}", bookingHandler.GetBooking)
			r.Patch("/bookings/{id}", bookingHandler.UpdateBooking)
			r.Delete("/bookings/{id}", bookingHandler.DeleteBooking)

			// Review endpoints
			r.Post("/reviews", reviewHandler.CreateReview)
			r.Get("/reviews/{id}", reviewHandler.GetReview)
			r.Patch("/reviews/{id}", reviewHandler.UpdateReview)
			r.Delete("/reviews/{id}", reviewHandler.DeleteReview)
			r.Get("/bookings/{id}/review", reviewHandler.GetBookingReview)
			r.Get("/users/me/reviews", reviewHandler.ListMyReviews)

			// Catalog writes (the service layer restricts these to admins)
			r.Post("/services", catalogHandler.CreateService)
			r.Patch("/services/{id}", catalogHandler.UpdateService)
			r.Delete("/services/{id}", catalogHandler.DeactivateService)

			// User endpoints
			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Patch("/users/{id}", userHandler.UpdateUser)
			r.Delete("/users/{id}", userHandler.DeactivateUser)

			// Admin listings (the service layer rejects non-admin actors)
			r.Get("/admin/services", catalogHandler.ListAllServices)
			r.Get("/admin/bookings", bookingHandler.ListAllBookings)
			r.Get("/admin/reviews", reviewHandler.ListAllReviews)
			r.Get("/services/{id}/bookings", bookingHandler.ListServiceBookings)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
