package api

import (
	"booknet/internal/config"     // Application configuration
	"booknet/internal/domain"     // Roles
	"booknet/internal/events"     // Domain events
	"booknet/internal/middleware" // Auth, cart identity, logging
	"booknet/internal/repository" // Stores
	"booknet/internal/response"   // Error envelope
	"booknet/internal/service"    // Flows
	"booknet/internal/upload"     // Upload middleware and storage
	"booknet/internal/utils"      // Token service
	"net/http"                    // HTTP handler types

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/go-chi/cors"                                  // CORS allow-list
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"gorm.io/gorm"                                            // GORM ORM library
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    redis.Cmdable
	Users    repository.UserRepository
	Tokens   *utils.TokenService
	Auth     *service.AuthService
	Carts    *service.CartService
	Profiles *service.ProfileService
	Storage  upload.Storage
	Events   events.Publisher
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(d Deps) *gin.Engine {
	RegisterValidators()
	isProd := d.Config.IsProd

	r := gin.New()
	r.Use(middleware.Recovery(isProd), middleware.RequestLogger(), middleware.SecurityHeaders(isProd))

	r.GET("/healthz", HealthHandler())
	r.GET("/readyz", ReadyHandler(d.DB, d.Redis))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if disk, ok := d.Storage.(*upload.DiskStorage); ok {
		r.Static("/uploads", disk.Root()) // Public uploaded files
	}

	auth := middleware.RequireAuth(d.Tokens, d.Users)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	v1 := r.Group("/api/v1")
	users := v1.Group("/users")
	{
		users.POST("/register", RegisterHandler(d.Auth, d.Redis, isProd))
		users.POST("/login", LoginHandler(d.Auth, isProd))
		users.POST("/logout", LogoutHandler(isProd))
		users.POST("/forgot-password", ForgotPasswordHandler(d.Auth))
		users.POST("/reset-password/:token", ResetPasswordHandler(d.Auth))
		users.GET("/my-profile", auth, MyProfileHandler(d.Profiles))
		users.POST("/:id", auth, upload.Middleware(upload.Profiles, d.Storage), UpsertProfileHandler(d.Profiles, d.Storage, d.Redis))
		users.GET("", auth, adminOnly, ListUsersHandler(d.Users, d.Redis))
		users.GET("/:id", auth, adminOnly, GetUserHandler(d.Users))
		users.DELETE("/:id", auth, adminOnly, DeleteUserHandler(d.Users, d.Redis, d.Events))
	}

	cart := v1.Group("/cart", middleware.IdentifyCart(isProd), middleware.OptionalAuth(d.Tokens, d.Users, isProd))
	{
		cart.GET("", GetCartHandler(d.Carts))
		cart.POST("/items", AddCartItemHandler(d.Carts))
	}

	uploads := v1.Group("/uploads", auth)
	{
		uploads.POST("/categories", adminOnly, upload.Middleware(upload.Categories, d.Storage), upload.UploadedHandler())
		uploads.POST("/products", adminOnly, upload.Middleware(upload.Products, d.Storage), upload.UploadedHandler())
		uploads.POST("/service-orders", upload.Middleware(upload.ServiceOrders, d.Storage), upload.UploadedHandler())
	}

	r.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "API route not found")
	})
	return r
}

// WithCORS wraps h with the allowed origins of the frontend, credentials included
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
}
