package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	userService *service.UserService
	ledgerSvc   *service.LedgerService
	depositSvc  *service.DepositService
	db          Pinger
}

func New(
	userService *service.UserService,
	ledgerSvc *service.LedgerService,
	depositSvc *service.DepositService,
	db Pinger,
) *Handler {
	return &Handler{
		userService: userService,
		ledgerSvc:   ledgerSvc,
		depositSvc:  depositSvc,
		db:          db,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
