package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/loan-admin-api/internal/application/confirmation"
	"github.com/loan-admin-api/internal/application/notification"
	"github.com/loan-admin-api/internal/application/organisation"
	"github.com/loan-admin-api/internal/application/plan"
	"github.com/loan-admin-api/internal/application/role"
	"github.com/loan-admin-api/internal/application/scope"
	"github.com/loan-admin-api/internal/application/session"
	"github.com/loan-admin-api/internal/application/staff"
	"github.com/loan-admin-api/internal/application/verification"
	"github.com/loan-admin-api/internal/config"
	"github.com/loan-admin-api/internal/domain"
	jwtinfra "github.com/loan-admin-api/internal/infrastructure/jwt"
	"github.com/loan-admin-api/internal/infrastructure/smtp"
	"github.com/loan-admin-api/internal/infrastructure/sns"
	"github.com/loan-admin-api/internal/transport/http/handler"
	appmiddleware "github.com/loan-admin-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	StaffRepo        StaffRepository
	SessionRepo      SessionRepository
	OrganisationRepo OrganisationRepository
	PlanRepo         PlanRepository
	RoleRepo         RoleRepository
	Verifications    *verification.Engine
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10. Applied to login and every code or token check.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, appmiddleware.TrustProxyHeaders(cfg.TrustProxyHeaders))

	sessionSvc := session.NewService(session.ServiceDeps{
		StaffRepo:   deps.StaffRepo,
		SessionRepo: deps.SessionRepo,
		JWTProvider: deps.JWTProvider,
		RefreshTTL:  cfg.RefreshTokenTTL(),
	})
	scopeSvc := scope.NewService(scope.ServiceDeps{
		SessionRepo:      deps.SessionRepo,
		StaffRepo:        deps.StaffRepo,
		RoleRepo:         deps.RoleRepo,
		OrganisationRepo: deps.OrganisationRepo,
		PlanRepo:         deps.PlanRepo,
	})
	notifySvc := notification.NewService(notification.ServiceDeps{
		Mailer:      deps.Mailer,
		SMSSender:   deps.SMSSender,
		LinkBaseURL: cfg.VerificationLinkBaseURL,
	})
	confirmSvc := confirmation.NewService(confirmation.ServiceDeps{
		Engine:    deps.Verifications,
		Notifier:  notifySvc,
		StaffRepo: deps.StaffRepo,
	})
	staffSvc := staff.NewService(staff.ServiceDeps{StaffRepo: deps.StaffRepo})
	orgSvc := organisation.NewService(organisation.ServiceDeps{
		OrganisationRepo: deps.OrganisationRepo,
		PlanRepo:         deps.PlanRepo,
	})
	planSvc := plan.NewService(plan.ServiceDeps{PlanRepo: deps.PlanRepo})
	roleSvc := role.NewService(role.ServiceDeps{RoleRepo: deps.RoleRepo})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	tenancyH := handler.NewTenancyHandler(scopeSvc)
	accessH := handler.NewAccessHandler()
	verifyH := handler.NewVerificationHandler(confirmSvc)
	staffH := handler.NewStaffHandler(staffSvc)
	orgH := handler.NewOrganisationHandler(orgSvc)
	planH := handler.NewPlanHandler(planSvc)
	roleH := handler.NewRoleHandler(roleSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/verifications/{channel}/validate-token", verifyH.ValidateToken)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))
			r.Use(appmiddleware.Tenancy(scopeSvc))

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Post("/sessions/logout-all", sessionH.LogoutAll)

			r.Get("/tenancy", tenancyH.Get)
			r.Put("/tenancy/view-all", tenancyH.SetViewAll)
			r.Put("/tenancy/organisation", tenancyH.SwitchOrganisation)
			r.Get("/access/decision", accessH.Decision)

			r.Post("/verifications/{channel}/request", verifyH.Request)
			r.With(sensitiveRL.Limit).Post("/verifications/{channel}/validate-code", verifyH.ValidateCode)
			r.Get("/verifications/{channel}/status", verifyH.Status)

			r.Get("/organisations", orgH.List)
			r.Get("/organisations/{id}", orgH.Get)

			// Staff management is a plan feature
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireFeatures(domain.FeatureStaffManagement))

				r.Get("/staff", staffH.List)
				r.Get("/staff/{id}", staffH.Get)
				r.With(appmiddleware.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin)).Post("/staff", staffH.Create)
			})

			// Super-admin only
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleSuperAdmin))

				r.Post("/organisations", orgH.Create)
				r.Get("/plans", planH.List)
				r.Put("/plans/{type}", planH.Put)
				r.Get("/roles", roleH.List)
				r.Put("/roles/{role}", roleH.Put)
			})
		})
	})

	return r
}
