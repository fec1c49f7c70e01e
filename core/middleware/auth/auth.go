package auth

import (
	"context"
	"errors"
	"strings"

	"sighting-engine/core/logger"
	"sighting-engine/core/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID    uint
	Username  string
	Moderator bool
}

type callerKey struct{}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored in ctx.
func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}

// UserStore loads the account behind a token.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*store.User, error)
}

// Config holds the middleware settings.
type Config struct {
	Secret         string
	ModeratorRoles []string
}

// New returns a middleware that requires a valid bearer token and a
// non-blocked account.
func New(users UserStore, cfg Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := logger.WithRayID(log, c)

		scheme, raw, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			return unauthorized(c, "Authentication credentials were not provided.")
		}

		claims, err := Parse(cfg.Secret, strings.TrimSpace(raw))
		if err != nil {
			l.Debug("Rejected bearer token", zap.Error(err))
			return unauthorized(c, "Invalid or expired token.")
		}

		user, err := users.GetUser(c.UserContext(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return unauthorized(c, "Invalid or expired token.")
		}
		if err != nil {
			l.Error("Failed to load caller", zap.Uint(logger.UserIDKey, claims.UserID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error."})
		}
		if user.Blocked {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This account has been blocked."})
		}

		caller := Caller{UserID: user.ID, Username: user.Username}
		for _, role := range cfg.ModeratorRoles {
			if user.HasRole(role) {
				caller.Moderator = true
				break
			}
		}
		c.SetUserContext(WithCaller(c.UserContext(), caller))
		c.Locals(logger.UserIDKey, user.ID)
		return c.Next()
	}
}

// RequireModerator rejects callers without moderation capability. It must
// run after New.
func RequireModerator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFrom(c.UserContext())
		if !ok {
			return unauthorized(c, "Authentication credentials were not provided.")
		}
		if !caller.Moderator {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Moderator permission required."})
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
