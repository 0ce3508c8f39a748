package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"metahire/models"
	"metahire/services"
	"metahire/utils"
)

// AccessTokenCookie is the cookie checked when no Authorization header is
// sent.
const AccessTokenCookie = "access_token"

const (
	localCaller    = "caller"
	localProfile   = "profile"
	localSessionID = "sessionID"
)

// Protected resolves the session token of the request and stores the caller,
// profile and session id in the context.
func Protected(auth *services.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Try to get token from Authorization header first
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization format", nil)
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies(AccessTokenCookie)
			if token == "" {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
			}
		}

		profile, sess, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if services.IsStorage(err) {
				utils.LogError("session_lookup_failed", err, map[string]interface{}{"path": c.Path()})
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to verify session", nil)
			}
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, err.Error(), nil)
		}

		caller := services.CallerFor(profile)
		if !caller.IsSuperadmin() && !caller.IsStaff() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Account has no role", nil)
		}

		c.Locals(localCaller, caller)
		c.Locals(localProfile, profile)
		c.Locals(localSessionID, sess.ID)
		return c.Next()
	}
}

// RequireSuperadmin rejects callers that are not superadmins. It must run
// after Protected.
func RequireSuperadmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CallerFrom(c).IsSuperadmin() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Superadmin access required", nil)
		}
		return c.Next()
	}
}

// CallerFrom returns the caller set by Protected, or the zero Caller.
func CallerFrom(c *fiber.Ctx) services.Caller {
	caller, _ := c.Locals(localCaller).(services.Caller)
	return caller
}

func ProfileFrom(c *fiber.Ctx) *models.Profile {
	profile, _ := c.Locals(localProfile).(*models.Profile)
	return profile
}

func SessionIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(localSessionID).(string)
	return id
}
