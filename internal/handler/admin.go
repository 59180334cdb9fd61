package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
)

// AdminHandler handles admin-key protected ledger operations
type AdminHandler struct {
	adminSvc    *service.AdminService
	ledgerSvc   *service.LedgerService
	teamSvc     *service.TeamService
	userService *service.UserService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminSvc *service.AdminService,
	ledgerSvc *service.LedgerService,
	teamSvc *service.TeamService,
	userService *service.UserService,
) *AdminHandler {
	return &AdminHandler{
		adminSvc:    adminSvc,
		ledgerSvc:   ledgerSvc,
		teamSvc:     teamSvc,
		userService: userService,
	}
}

// GetStats returns ledger-wide totals
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.adminSvc.GetStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "stats": stats})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := page(c)

	users, err := h.userService.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(fiber.Map{"ok": true, "users": users})
}

// RecordTransaction applies a manual ledger entry
func (h *AdminHandler) RecordTransaction(c *fiber.Ctx) error {
	var req service.RecordTransactionInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid_request")
	}

	t, err := h.ledgerSvc.RecordTransaction(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "transaction": t})
}

func (h *AdminHandler) RecordReferralEvent(c *fiber.Ctx) error {
	var req service.RecordReferralEventInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid_request")
	}

	e, err := h.ledgerSvc.RecordReferralEvent(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "event": e})
}

type RecomputeTeamRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *AdminHandler) RecomputeTeam(c *fiber.Ctx) error {
	var req RecomputeTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid_request")
	}
	if req.UserID <= 0 {
		return respondError(c, service.ErrInvalidUserID)
	}

	snap, err := h.teamSvc.Recompute(c.UserContext(), req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "team": snap})
}

func (h *AdminHandler) RecomputeAll(c *fiber.Ctx) error {
	snaps, err := h.teamSvc.RecomputeAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "users": len(snaps), "teams": snaps})
}
