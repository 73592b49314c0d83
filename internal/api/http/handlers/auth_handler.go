package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AuthHandler exposes registration, login and email verification.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAuthResponse(service.MsgUserCreated, res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(service.MsgLoginSuccessful, res))
}

// SendVerificationCode handles POST /auth/send-verification-code.
func (h *AuthHandler) SendVerificationCode(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return message(c, func() (string, error) {
		return h.accounts.SendVerificationCode(c.UserContext(), req.Email)
	})
}

// VerifyEmail handles POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return message(c, func() (string, error) {
		return h.accounts.VerifyEmail(c.UserContext(), req.Email, req.OTP)
	})
}

// bind decodes the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func message(c *fiber.Ctx, fn func() (string, error)) error {
	msg, err := fn()
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}
