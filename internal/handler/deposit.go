package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
)

// Deposit books a deposit for the user named by telegram_id or user_id.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req model.DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid_request")
	}

	result, err := h.depositSvc.Deposit(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	dist := result.ReferralDist
	if dist == nil {
		dist = []model.ReferralShare{}
	}

	return c.JSON(fiber.Map{
		"ok":            true,
		"mstc":          result.MSTC,
		"musd":          result.MUSD,
		"referral_dist": dist,
	})
}
