package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pos-service/internal/jwt"
	"pos-service/internal/model"
	"pos-service/internal/service"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

const currentUserKey = "currentUser"

// AuthMiddleware resolves the requesting user. Browser sessions carry a
// Bearer access token; API clients send their persisted authentication
// token in X-Auth-Token.
func AuthMiddleware(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiToken := c.Get("X-Auth-Token"); apiToken != "" {
			user, err := users.FindByAuthenticationToken(c.Context(), apiToken)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authentication token"})
			}
			c.Locals(currentUserKey, user)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			// No header: fall back to the remember-me cookie pair.
			idCookie := c.Cookies("user_id")
			rememberCookie := c.Cookies("remember_token")
			if idCookie != "" && rememberCookie != "" {
				userID, err := uuid.Parse(idCookie)
				if err != nil {
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session cookie"})
				}
				user, err := users.FindByID(c.Context(), userID)
				if err != nil || !users.Authenticated(user, service.TokenRemember, rememberCookie) {
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session cookie"})
				}
				c.Locals(currentUserKey, user)
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, jwtv5.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token has expired"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		userIDStr, ok := claims["sub"].(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in token claims"})
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
		}

		user, err := users.FindByID(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unknown user"})
		}

		c.Locals(currentUserKey, user)

		return c.Next()
	}
}

// CurrentUser returns the user resolved by AuthMiddleware.
func CurrentUser(c *fiber.Ctx) (*model.User, error) {
	user, ok := c.Locals(currentUserKey).(*model.User)
	if !ok {
		return nil, errors.New("current user not found in context")
	}
	return user, nil
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		path := c.Path()
		statusStr := fmt.Sprintf("%d", statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}
