package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthController struct {
	Auth         *services.Auth
	Logger       logrus.FieldLogger
	SecureCookie bool
}

func NewAuthController(auth *services.Auth, logger logrus.FieldLogger, secureCookie bool) *AuthController {
	return &AuthController{
		Auth:         auth,
		Logger:       logger,
		SecureCookie: secureCookie,
	}
}

// Register creates a staff account
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req services.NewAccount
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	profile, err := ac.Auth.Register(c.UserContext(), req)
	if err != nil {
		return handleError(c, err, "register_failed")
	}
	ac.Logger.WithField("profile_id", profile.ID).Info("account registered")
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(profile))
}

// Login starts a session and returns its token, also set as a cookie
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	res, err := ac.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return handleError(c, err, "login_failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    res.Token,
		Expires:  res.Session.ExpiresAt,
		HTTPOnly: true,
		Secure:   ac.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(utils.SuccessResponse(res))
}

// Logout ends the current session
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Auth.Logout(c.UserContext(), middleware.SessionIDFrom(c)); err != nil {
		return handleError(c, err, "logout_failed")
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   ac.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Logged out"}))
}

// Me returns the authenticated profile
func (ac *AuthController) Me(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"profile":    middleware.ProfileFrom(c),
		"session_id": middleware.SessionIDFrom(c),
	}))
}
