package handler

import (
	"net/http"
	_ "shop-auth/docs"
	"shop-auth/internal/model"
	"shop-auth/internal/security"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupUserServiceRoutes регистрирует эндпоинты user-service.
// authenticate: фильтр, который кладет личность в контекст запроса.
func SetupUserServiceRoutes(r chi.Router, auth *AuthenticationHandler, users *UserHandler, authenticate func(http.Handler) http.Handler) {
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", users.RegisterUser)
		r.Post("/login", auth.Login)
		r.Post("/refresh", auth.RefreshToken)
		r.Post("/access-token-check", auth.CheckAccessToken)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, security.RequireIdentity)
			r.Post("/logout-all", auth.LogoutAll)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, security.RequireRole(model.RoleAdmin))
			r.Delete("/revocations/{userId}", auth.ClearRevocation)
		})
	})

	r.Route("/v1/users/me", func(r chi.Router) {
		r.Use(authenticate, security.RequireIdentity)
		r.Get("/", users.GetCurrentUser)
		r.Put("/password", users.ChangePassword)
	})
}

// SetupDocsRoutes отдает swagger UI и doc.json по /swagger/*.
func SetupDocsRoutes(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
