package serverutils

import (
	"strings"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IdentityMiddleware resolves the caller to an entity.Owner and stores it
// in Locals. A valid bearer token identifies a user; anyone else is an
// anonymous session keyed by a UUID held in a cookie or header. A bearer
// token that fails verification is rejected with 401.
func IdentityMiddleware(cfg config.AuthConfig) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if header := ctx.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
			userId, err := parseBearer(header, cfg.JWTSecret)
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
			}
			ctx.Locals(constant.LocalsUserID, userId)
			ctx.Locals(constant.LocalsOwner, entity.UserOwner(userId))
			return ctx.Next()
		}

		key := ctx.Get(cfg.SessionHeaderName)
		if !validSessionKey(key) {
			key = ctx.Cookies(cfg.SessionCookieName)
		}
		if !validSessionKey(key) {
			key = uuid.NewString()
			ctx.Cookie(&fiber.Cookie{
				Name:     cfg.SessionCookieName,
				Value:    key,
				Path:     "/",
				MaxAge:   int(cfg.SessionTTL.Seconds()),
				HTTPOnly: true,
				Secure:   cfg.SessionCookieSecure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		ctx.Locals(constant.LocalsSessionKey, key)
		ctx.Locals(constant.LocalsOwner, entity.AnonymousOwner(key))
		return ctx.Next()
	}
}

func validSessionKey(key string) bool {
	if key == "" {
		return false
	}
	_, err := uuid.Parse(key)
	return err == nil
}

// OwnerFromCtx returns the owner set by IdentityMiddleware.
func OwnerFromCtx(ctx *fiber.Ctx) (entity.Owner, bool) {
	owner, ok := ctx.Locals(constant.LocalsOwner).(entity.Owner)
	return owner, ok
}
