package stubserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/auth"
	"github.com/frahmantamala/consent-management/internal/transport"
	"github.com/frahmantamala/consent-management/internal/transport/middleware"
	"github.com/frahmantamala/consent-management/internal/transport/swagger"
)

// Server is the bundled reference backend. It implements the whole
// platform API surface against a local database so the client and its
// integration tests can run without the real platform.
type Server struct {
	*transport.BaseHandler

	store      *Store
	dispatcher *Dispatcher
	tokens     *auth.TokenGenerator
	logger     *slog.Logger
}

func NewServer(store *Store, dispatcher *Dispatcher, tokens *auth.TokenGenerator, logger *slog.Logger) *Server {
	return &Server{
		BaseHandler: transport.NewBaseHandler(logger),
		store:       store,
		dispatcher:  dispatcher,
		tokens:      tokens,
		logger:      logger,
	}
}

type claimsKey struct{}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(*auth.Claims)
	return claims
}

// authMiddleware validates the bearer token and stores its claims.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.ExtractTokenFromHeader(r)
		if token == "" {
			s.HandleServiceError(w, internal.ErrInvalidToken)
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			s.HandleServiceError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSuperAdmin guards the role registry and platform metrics.
func (s *Server) requireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		if claims == nil || !claims.IsSuperAdmin {
			s.HandleServiceError(w, internal.ErrNotSuperAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Router assembles the full API surface under /api/v1.
func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(s.logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/auth/token", s.handleIssueToken)
		r.Post("/feedback", s.handleSubmitFeedback)

		r.Group(func(pr chi.Router) {
			pr.Use(s.authMiddleware)

			// user surface
			pr.Get("/user-consents", s.handleUserConsents)
			pr.Put("/user-consent/{id}", s.handleUpdateUserConsent)
			pr.Get("/user-notifications", s.handleNotifications)
			pr.Get("/user-profile", s.handleProfile)
			pr.Put("/user-profile", s.handleUpdateProfile)

			// fiduciary surface
			pr.Route("/api-keys", func(kr chi.Router) {
				kr.Get("/", s.handleListAPIKeys)
				kr.Post("/", s.handleCreateAPIKey)
				kr.Put("/{id}/revoke", s.handleRevokeAPIKey)
				kr.Put("/{id}/reactivate", s.handleReactivateAPIKey)
				kr.Delete("/{id}/permanent", s.handleDeleteAPIKey)
			})
			pr.Route("/webhooks", func(wr chi.Router) {
				wr.Get("/", s.handleListWebhooks)
				wr.Post("/", s.handleCreateWebhook)
				wr.Put("/{id}/status", s.handleToggleWebhook)
				wr.Delete("/{id}", s.handleDeleteWebhook)
			})
			pr.Get("/purpose-cards", s.handleListPurposeCodes)
			pr.Post("/purpose-card", s.handleCreatePurposeCode)
			pr.Delete("/purpose-cards/{id}", s.handleDeletePurposeCode)
			pr.Get("/fiduciary-events", s.handleEvents)
			pr.Get("/fiduciary/{id}/details", s.handleFiduciaryDetails)

			// admin surface
			pr.Get("/my-consent-requests", s.handleConsentRequests)
			pr.Put("/consent-requests/{id}/status", s.handleOverrideConsent)
			pr.Get("/fiduciaries", s.handleListFiduciaries)
			pr.Put("/fiduciaries/{id}/status", s.handleUpdateFiduciaryStatus)
			pr.Route("/dpo", func(dr chi.Router) {
				dr.Get("/", s.handleListDPOs)
				dr.Post("/", s.handleCreateDPO)
				dr.Put("/{id}", s.handleUpdateDPO)
				dr.Delete("/{id}", s.handleDeleteDPO)
			})
			pr.Get("/feedbacks", s.handleListFeedback)
			pr.Post("/feedback-response", s.handleRespondFeedback)

			// role registry, super admin only
			pr.Group(func(sr chi.Router) {
				sr.Use(s.requireSuperAdmin)
				sr.Get("/users-with-roles", s.handleUsersWithRoles)
				sr.Post("/assign-role", s.handleAssignRole)
				sr.Delete("/remove-role", s.handleRemoveRole)
				sr.Get("/platform-metrics", s.handlePlatformMetrics)
			})
		})
	})

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
