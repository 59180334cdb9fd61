package service

import (
	"errors"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

var (
	ErrUserNotFound        = repository.ErrUserNotFound
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidUserID       = errors.New("user id must be positive")
	ErrInvalidRole         = errors.New("unknown role")
	ErrInvalidReferrer     = errors.New("invalid referrer")
	ErrInvalidCurrency     = errors.New("currency must be MUSD or MSTC")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMissingIdentifier   = errors.New("telegram_id or user_id is required")
	ErrMinDeposit          = errors.New("deposit is below the minimum")
	ErrInvalidStep         = errors.New("deposit must grow in steps of 10 above the minimum")
	ErrMissingTxTag        = errors.New("tx_musd is required")
	ErrDuplicateDeposit    = errors.New("deposit tag already processed")
)
