package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
)

type CreateUserRequest struct {
	model.NewUser
	RefCode string `json:"ref_code,omitempty"`
}

// CreateUser registers a user. With ref_code it behaves like the bot's /start:
// an existing user is returned instead of a conflict.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid_request")
	}

	if req.RefCode != "" {
		id := req.ID
		if id == 0 {
			id = req.TelegramID
		}
		if id <= 0 {
			return respondError(c, service.ErrInvalidUserID)
		}

		user, created, err := h.userService.GetOrCreateUser(c.UserContext(), service.TelegramUser{
			ID:        id,
			Username:  req.Username,
			FirstName: req.FirstName,
		}, req.RefCode)
		if err != nil {
			return respondError(c, err)
		}

		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"ok": true, "user": user, "created": created})
	}

	user, err := h.userService.CreateUser(c.UserContext(), req.NewUser)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "user": user, "created": true})
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "user": user})
}

func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	limit, offset := page(c)

	transactions, err := h.ledgerSvc.ListTransactions(c.UserContext(), id, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	return c.JSON(fiber.Map{"ok": true, "transactions": transactions})
}

// ListReferrals returns events the user earned (direction=in, default) or
// generated with their own deposits (direction=out).
func (h *Handler) ListReferrals(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	limit, offset := page(c)
	direction := model.ReferralDirection(c.Query("direction", string(model.ReferralDirectionIn)))
	if direction != model.ReferralDirectionIn && direction != model.ReferralDirectionOut {
		return fail(c, fiber.StatusBadRequest, "invalid_direction")
	}

	events, err := h.ledgerSvc.ListReferralEvents(c.UserContext(), id, direction, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	if events == nil {
		events = []model.ReferralEvent{}
	}
	return c.JSON(fiber.Map{"ok": true, "events": events})
}

func (h *Handler) ListChildren(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	children, err := h.userService.ListChildren(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if children == nil {
		children = []model.User{}
	}
	return c.JSON(fiber.Map{"ok": true, "children": children})
}

func userIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid_user_id")
	}
	return id, nil
}

func page(c *fiber.Ctx) (int, int) {
	return c.QueryInt("limit", 0), c.QueryInt("offset", 0)
}
