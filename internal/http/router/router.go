package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/alokah-labs/superapp-backend/internal/domain"
	"github.com/alokah-labs/superapp-backend/internal/health"
	"github.com/alokah-labs/superapp-backend/internal/http/handler"
	"github.com/alokah-labs/superapp-backend/internal/http/middleware"
	"github.com/alokah-labs/superapp-backend/internal/http/response"
	"github.com/alokah-labs/superapp-backend/internal/repository"
	"github.com/alokah-labs/superapp-backend/internal/security"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	CentralHandler   *handler.CentralHandler
	HotelHandler     *handler.HotelHandler
	InventoryHandler *handler.InventoryHandler
	EmployeeHandler  *handler.EmployeeHandler
	JWTManager       *security.JWTManager
	Users            repository.UserRepository
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	APIRateLimiter   func(http.Handler) http.Handler
	AuthRateLimiter  func(http.Handler) http.Handler
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

const uploadBodyLimit = 6 << 20 // image endpoints accept up to 6MB multipart bodies

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	apiLimiter := dep.APIRateLimiter
	if apiLimiter == nil {
		apiLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	r.Use(apiLimiter)

	authed := middleware.AuthMiddleware(dep.JWTManager)
	requireAdmin := middleware.RequireRole(dep.Users, domain.RoleAdmin, domain.RoleSuperAdmin)
	requireSuperAdmin := middleware.RequireRole(dep.Users, domain.RoleSuperAdmin)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, "", map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, "", map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "dependencies are not ready")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/otp/send", dep.AuthHandler.SendOTP)
			r.With(authLimiter).Post("/otp/verify", dep.AuthHandler.VerifyOTP)
			r.With(authLimiter).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.Post("/logout", dep.AuthHandler.Logout)
			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Post("/password", dep.AuthHandler.SetPassword)
				r.Patch("/password", dep.AuthHandler.ChangePassword)
			})
		})

		r.Route("/central", func(r chi.Router) {
			r.With(authLimiter).Post("/users", dep.CentralHandler.RegisterSuperAdmin)
			r.With(authLimiter).Post("/authenticate", dep.CentralHandler.AuthenticateAdmin)
			r.With(authLimiter).Post("/verify-otp", dep.CentralHandler.VerifyAdminOTP)
			r.With(authed, requireSuperAdmin).Post("/secrets", dep.CentralHandler.AddSecret)
			r.Group(func(r chi.Router) {
				r.Use(authed, requireAdmin)
				r.Post("/inventory", dep.CentralHandler.CreateInventory)
				r.Post("/inventory/items", dep.CentralHandler.AddItem)
				r.Get("/inventory/items", dep.CentralHandler.SearchItems)
			})
		})

		r.Route("/hotels", func(r chi.Router) {
			r.Use(authed)
			r.Post("/", dep.HotelHandler.Create)
			r.Get("/", dep.HotelHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dep.HotelHandler.Get)
				r.Put("/", dep.HotelHandler.Update)
				r.Delete("/", dep.HotelHandler.Delete)
				r.With(middleware.BodyLimit(uploadBodyLimit)).Post("/logo", dep.HotelHandler.UploadLogo)

				r.Route("/inventory", func(r chi.Router) {
					r.Post("/", dep.InventoryHandler.AddItem)
					r.Get("/", dep.InventoryHandler.ListItems)
					r.Put("/{itemID}", dep.InventoryHandler.UpdateItem)
					r.Delete("/{itemID}", dep.InventoryHandler.DeleteItem)
					r.With(middleware.BodyLimit(uploadBodyLimit)).Post("/{itemID}/image", dep.InventoryHandler.UploadItemImage)
				})

				r.Route("/employees", func(r chi.Router) {
					r.Post("/", dep.EmployeeHandler.AddEmployee)
					r.Get("/", dep.EmployeeHandler.ListEmployees)
					r.Delete("/{employeeID}", dep.EmployeeHandler.RemoveEmployee)
				})
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
