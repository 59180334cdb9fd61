package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/service"
)

// errorCodes maps service sentinels to the status and code returned to clients.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrUserNotFound, fiber.StatusNotFound, "user_not_found"},
	{service.ErrUserExists, fiber.StatusConflict, "user_exists"},
	{service.ErrDuplicateDeposit, fiber.StatusConflict, "duplicate_tx"},
	{service.ErrInvalidUserID, fiber.StatusBadRequest, "invalid_user_id"},
	{service.ErrInvalidRole, fiber.StatusBadRequest, "invalid_role"},
	{service.ErrInvalidReferrer, fiber.StatusBadRequest, "invalid_referrer"},
	{service.ErrInvalidCurrency, fiber.StatusBadRequest, "invalid_currency"},
	{service.ErrInvalidAmount, fiber.StatusBadRequest, "invalid_amount"},
	{service.ErrInsufficientBalance, fiber.StatusBadRequest, "insufficient_balance"},
	{service.ErrMissingIdentifier, fiber.StatusBadRequest, "missing_identifier"},
	{service.ErrMinDeposit, fiber.StatusBadRequest, "min_deposit"},
	{service.ErrInvalidStep, fiber.StatusBadRequest, "invalid_step"},
	{service.ErrMissingTxTag, fiber.StatusBadRequest, "missing_tx_musd"},
}

func respondError(c *fiber.Ctx, err error) error {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return fail(c, e.status, e.code)
		}
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("Request failed")
	return fail(c, fiber.StatusInternalServerError, "internal_error")
}

func fail(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":    false,
		"error": code,
	})
}

// ErrorHandler renders errors that escape handlers in the same shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}
	return respondError(c, err)
}
