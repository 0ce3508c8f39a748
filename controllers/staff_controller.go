package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

type StaffController struct {
	Admin  *services.Admin
	Logger logrus.FieldLogger
}

func NewStaffController(admin *services.Admin, logger logrus.FieldLogger) *StaffController {
	return &StaffController{
		Admin:  admin,
		Logger: logger,
	}
}

type assignCampaignRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
}

// GetStaff lists staff members with their campaign assignments
func (sc *StaffController) GetStaff(c *fiber.Ctx) error {
	members, err := sc.Admin.ListStaff(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return handleError(c, err, "staff_list_failed")
	}
	return c.JSON(utils.SuccessResponse(members))
}

func (sc *StaffController) CreateStaff(c *fiber.Ctx) error {
	var input services.NewAccount
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	profile, err := sc.Admin.AddStaff(c.UserContext(), middleware.CallerFrom(c), input)
	if err != nil {
		return handleError(c, err, "staff_create_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(profile))
}

func (sc *StaffController) UpdateStaff(c *fiber.Ctx) error {
	var input services.StaffUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	profile, err := sc.Admin.EditStaff(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), input)
	if err != nil {
		return handleError(c, err, "staff_update_failed")
	}
	return c.JSON(utils.SuccessResponse(profile))
}

func (sc *StaffController) DeleteStaff(c *fiber.Ctx) error {
	if err := sc.Admin.RemoveStaff(c.UserContext(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return handleError(c, err, "staff_delete_failed")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Staff member removed"}))
}

func (sc *StaffController) GetAssignments(c *fiber.Ctx) error {
	rows, err := sc.Admin.StaffAssignments(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return handleError(c, err, "staff_assignments_failed")
	}
	return c.JSON(utils.SuccessResponse(rows))
}

func (sc *StaffController) AssignCampaign(c *fiber.Ctx) error {
	var req assignCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	assignment, err := sc.Admin.AssignCampaign(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), req.CampaignID)
	if err != nil {
		return handleError(c, err, "campaign_assign_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(assignment))
}

func (sc *StaffController) UnassignCampaign(c *fiber.Ctx) error {
	if err := sc.Admin.UnassignCampaign(c.UserContext(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return handleError(c, err, "campaign_unassign_failed")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Assignment removed"}))
}
