package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// UserHandler exposes password reset and user lookups.
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler constructs handler.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// RequestPasswordReset handles POST /user/request-password-reset.
func (h *UserHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return message(c, func() (string, error) {
		return h.accounts.RequestPasswordReset(c.UserContext(), req.Email)
	})
}

// VerifyPasswordReset handles POST /user/verify-password-reset.
func (h *UserHandler) VerifyPasswordReset(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return message(c, func() (string, error) {
		return h.accounts.VerifyPasswordReset(c.UserContext(), req.Email, req.OTP)
	})
}

// ResetPassword handles PATCH /user/password-reset.
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return message(c, func() (string, error) {
		return h.accounts.ResetPassword(c.UserContext(), req.Email, req.Password)
	})
}

// Me handles GET /user/me.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthenticated")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Get handles GET /user/:id.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.accounts.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// List handles GET /user.
func (h *UserHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	users, err := h.accounts.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	out := dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users)), Limit: limit, Offset: offset}
	for i := range users {
		out.Users = append(out.Users, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(out)
}
