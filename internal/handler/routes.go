package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/middleware"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
)

// Register mounts every route on app.
func Register(app *fiber.App, h *Handler, adminH *AdminHandler, adminSvc *service.AdminService, limiter *middleware.RateLimiter) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Post("/deposit", limiter.Handler(middleware.DepositKey), h.Deposit)

	users := api.Group("/users")
	users.Post("/", h.CreateUser)
	users.Get("/:id", h.GetUser)
	users.Get("/:id/transactions", h.ListTransactions)
	users.Get("/:id/referrals", h.ListReferrals)
	users.Get("/:id/children", h.ListChildren)

	admin := api.Group("/admin", middleware.AdminAuth(adminSvc))
	admin.Get("/stats", adminH.GetStats)
	admin.Get("/users", adminH.ListUsers)
	admin.Post("/transactions", adminH.RecordTransaction)
	admin.Post("/referral-events", adminH.RecordReferralEvent)
	admin.Post("/recompute-team", adminH.RecomputeTeam)
	admin.Post("/recompute-all", adminH.RecomputeAll)
}
