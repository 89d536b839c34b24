package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recovery-service/internal/api/http/handlers"
	"github.com/spec-kit/recovery-service/internal/auth"
	"github.com/spec-kit/recovery-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Cases          *handlers.CasesHandler
	DCAs           *handlers.DCAsHandler
	Allocations    *handlers.AllocationsHandler
	SLA            *handlers.SLAHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/register", auth.RequireRole(domain.RoleEnterpriseAdmin), cfg.Auth.Register)
	authProtected.Post("/password/change", auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	cases := app.Group("/cases", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	cases.Post("", auth.RequireRole(domain.RoleEnterpriseAdmin, domain.RoleAnalyst), cfg.Cases.CreateCase)
	cases.Get("", cfg.Cases.ListCases)
	cases.Get("/queue", cfg.Cases.WorkQueue)
	cases.Get("/:id", cfg.Cases.GetCase)
	cases.Put("/:id", cfg.Cases.UpdateCase)
	cases.Patch("/:id/status", cfg.Cases.UpdateStatus)
	cases.Post("/:id/contact", cfg.Cases.RecordContact)
	cases.Post("/:id/resolve", cfg.Cases.ResolveCase)
	cases.Get("/:id/score", cfg.Cases.Score)
	cases.Get("/:id/priority", cfg.Cases.Priority)
	cases.Post("/:id/allocate", auth.RequireRole(domain.RoleEnterpriseAdmin, domain.RoleAnalyst), cfg.Allocations.Allocate)
	cases.Get("/:id/recommendations", cfg.Allocations.Recommendations)

	allocations := app.Group("/allocations", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleEnterpriseAdmin, domain.RoleAnalyst))
	allocations.Post("/bulk", cfg.Allocations.BulkAllocate)

	dcas := app.Group("/dcas", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	dcas.Get("", cfg.DCAs.ListWorkloads)
	dcas.Get("/:id", cfg.DCAs.Get)
	dcas.Post("", auth.RequireRole(domain.RoleEnterpriseAdmin), cfg.DCAs.Register)
	dcas.Put("/:id", auth.RequireRole(domain.RoleEnterpriseAdmin), cfg.DCAs.Update)

	sla := app.Group("/sla", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	sla.Get("/cases/:id", cfg.SLA.CaseStatus)
	sla.Get("/report", cfg.SLA.Report)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleEnterpriseAdmin))
	admin.Get("/jobs", cfg.Admin.ListJobs)
	admin.Post("/jobs/:name/run", cfg.Admin.TriggerJob)
	admin.Post("/scoring/train", cfg.Admin.TrainModel)
	admin.Get("/scoring/mode", cfg.Admin.ScoringMode)
	admin.Get("/insights", cfg.Admin.PortfolioInsights)
}
