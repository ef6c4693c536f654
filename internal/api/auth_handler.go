package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pos-service/internal/jwt"
	"pos-service/internal/model"
	"pos-service/internal/service"
)

type AuthHandler struct {
	users    service.UserService
	validate *validator.Validate
}

func NewAuthHandler(users service.UserService) *AuthHandler {
	return &AuthHandler{
		users:    users,
		validate: validator.New(),
	}
}

// validationFailed renders collected field failures when err is a
// model.ValidationErrors; otherwise it reports false.
func validationFailed(c *fiber.Ctx, err error) (bool, error) {
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, nil
	}
	return true, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "Validation failed",
		"fields": verrs,
	})
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var request RegisterRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON", "details": err.Error()})
	}

	user, err := h.users.Register(c.Context(), request.Name, request.Email, request.Password)
	if err != nil {
		if handled, rerr := validationFailed(c, err); handled {
			return rerr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully. Check your email to activate the account.",
		"userId":  user.ID,
	})
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	AccessToken   string `json:"access_token"`
	RememberToken string `json:"remember_token,omitempty"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	user, err := h.users.Authenticate(c.Context(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		if errors.Is(err, service.ErrNotActivated) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account not activated. Check your email for the activation link."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	accessToken, err := jwt.GenerateAccessToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	response := LoginResponse{AccessToken: accessToken}

	if request.RememberMe {
		rememberToken, err := h.users.Remember(c.Context(), user)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		response.RememberToken = rememberToken

		expires := time.Now().Add(20 * 365 * 24 * time.Hour)
		c.Cookie(&fiber.Cookie{Name: "user_id", Value: user.ID.String(), Expires: expires, HTTPOnly: true})
		c.Cookie(&fiber.Cookie{Name: "remember_token", Value: rememberToken, Expires: expires, HTTPOnly: true})
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.users.Forget(c.Context(), user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.ClearCookie("user_id", "remember_token")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Successfully logged out"})
}

func (h *AuthHandler) Activate(c *fiber.Ctx) error {
	email := c.Query("email")
	token := c.Query("token")
	if email == "" || token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing email or token"})
	}

	user, err := h.users.Activate(c.Context(), email, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid activation link"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account activated",
		"userId":  user.ID,
	})
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset always answers 200 so the endpoint cannot be
// used to probe which addresses have accounts.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var request PasswordResetRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	if _, err := h.users.CreatePasswordReset(c.Context(), request.Email); err != nil && !errors.Is(err, service.ErrUserNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "If that email exists, a reset link has been sent."})
}

type CompletePasswordResetRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) CompletePasswordReset(c *fiber.Ctx) error {
	var request CompletePasswordResetRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	err := h.users.ResetPassword(c.Context(), request.Email, request.Token, request.Password)
	if err != nil {
		if errors.Is(err, service.ErrResetExpired) {
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Password reset has expired"})
		}
		if errors.Is(err, service.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid reset link"})
		}
		if handled, rerr := validationFailed(c, err); handled {
			return rerr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Password has been reset"})
}
