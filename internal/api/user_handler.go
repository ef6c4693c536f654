package api

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pos-service/internal/s3"
	"pos-service/internal/service"
)

type UserHandler struct {
	users     service.UserService
	validate  *validator.Validate
	presigner *s3.FilePresigner
}

func NewUserHandler(users service.UserService, presigner *s3.FilePresigner) *UserHandler {
	return &UserHandler{
		users:     users,
		validate:  validator.New(),
		presigner: presigner,
	}
}

// GetProfile returns the restricted projection: name, email and the
// names of the tables the user serves.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	profile, err := h.users.Profile(c.Context(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch user profile"})
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

// UpdateProfile edits the profile. Password is optional: leaving it
// blank keeps the current one.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var request UpdateProfileRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.users.UpdateProfile(c.Context(), user, request.Name, request.Email, request.Password); err != nil {
		if handled, rerr := validationFailed(c, err); handled {
			return rerr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	profile, err := h.users.Profile(c.Context(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch user profile"})
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

type PictureUploadRequest struct {
	Size int64 `json:"size" validate:"required,gt=0"`
}

// RequestPictureUpload validates the declared size and hands back a
// presigned upload URL for the picture blob.
func (h *UserHandler) RequestPictureUpload(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var request PictureUploadRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	objectKey := fmt.Sprintf("user-pictures/%s/%s.jpg", user.ID, uuid.New())

	if err := h.users.AttachPicture(c.Context(), user, request.Size, objectKey); err != nil {
		if handled, rerr := validationFailed(c, err); handled {
			return rerr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	uploadURL, err := h.presigner.GeneratePresignedUploadURL(objectKey, request.Size)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not generate upload URL"})
	}

	finalPictureURL := os.Getenv("S3_ENDPOINT") + "/" + h.presigner.BucketName + "/" + objectKey

	return c.JSON(fiber.Map{
		"upload_url":        uploadURL,
		"final_picture_url": finalPictureURL,
	})
}

// RotateAuthenticationToken replaces the caller's API token and returns
// the new value once; it is never listed again afterwards.
func (h *UserHandler) RotateAuthenticationToken(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := h.users.RotateAuthenticationToken(c.Context(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"authentication_token": token})
}
