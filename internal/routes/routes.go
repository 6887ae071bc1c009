package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/handlers"
	"github.com/BradenHooton/tripshare/internal/middleware"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth    *handlers.AuthHandler
	Groups  *handlers.GroupHandler
	Members *handlers.MemberHandler
	Media   *handlers.MediaHandler
}

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokenManager *auth.TokenManager, authLimit middleware.RateLimitConfig) {
	rateLimited := middleware.RateLimitByIP(authLimit)

	router.Route("/auth", func(r chi.Router) {
		// Public, rate limited per client IP
		r.With(rateLimited).Post("/register", h.Auth.Register)
		r.With(rateLimited).Post("/login", h.Auth.Login)
		r.With(rateLimited).Post("/refresh", h.Auth.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokenManager))
			r.Post("/logout", h.Auth.Logout)
			r.Post("/logout-all", h.Auth.LogoutAll)
			r.Get("/me", h.Auth.Me)
			r.Get("/activity", h.Auth.Activity)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.Groups.Create)
			r.Get("/", h.Groups.List)
			r.Get("/public", h.Groups.ListPublic)

			r.Post("/join/{code}", h.Members.JoinWithCode)
			r.Post("/invites/{token}/accept", h.Members.AcceptInvite)
			r.Post("/invites/{token}/decline", h.Members.DeclineInvite)
			r.Post("/join-requests/{id}/approve", h.Members.ApproveJoinRequest)
			r.Post("/join-requests/{id}/reject", h.Members.RejectJoinRequest)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Groups.Get)
				r.Patch("/", h.Groups.Update)
				r.Delete("/", h.Groups.Delete)
				r.Get("/invite-code/qr", h.Groups.InviteCodeQR)

				r.Get("/members", h.Members.ListMembers)
				r.Post("/members/invite", h.Members.Invite)
				r.Delete("/members/{userId}", h.Members.RemoveMember)
				r.Patch("/members/{userId}/role", h.Members.ChangeRole)
				r.Post("/leave", h.Members.Leave)
				r.Post("/join-requests", h.Members.RequestToJoin)
				r.Get("/join-requests", h.Members.ListJoinRequests)

				r.Post("/media", h.Media.Upload)
				r.Get("/media", h.Media.List)
				r.Get("/media/count", h.Media.Count)
			})
		})

		r.Route("/media/{id}", func(r chi.Router) {
			r.Get("/", h.Media.Get)
			r.Put("/caption", h.Media.UpdateCaption)
			r.Delete("/", h.Media.Delete)
			r.Get("/download", h.Media.Download)
		})
	})
}

// HealthHandler reports liveness together with database reachability
func HealthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}
