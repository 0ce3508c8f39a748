package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

type CampaignController struct {
	Campaigns *services.Campaigns
	Logger    logrus.FieldLogger
}

func NewCampaignController(campaigns *services.Campaigns, logger logrus.FieldLogger) *CampaignController {
	return &CampaignController{
		Campaigns: campaigns,
		Logger:    logger,
	}
}

func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var input services.CampaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	campaign, err := cc.Campaigns.Create(c.UserContext(), middleware.CallerFrom(c), input)
	if err != nil {
		return handleError(c, err, "campaign_create_failed")
	}
	cc.Logger.WithField("campaign_id", campaign.ID).Info("campaign created")
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

// GetCampaigns lists the campaigns visible to the caller
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	campaigns, err := cc.Campaigns.List(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return handleError(c, err, "campaign_list_failed")
	}
	return c.JSON(utils.SuccessResponse(campaigns))
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	campaign, err := cc.Campaigns.Get(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return handleError(c, err, "campaign_get_failed")
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	var input services.CampaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	campaign, err := cc.Campaigns.Update(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), input)
	if err != nil {
		return handleError(c, err, "campaign_update_failed")
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

// DeleteCampaign removes a campaign together with its leads
func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := cc.Campaigns.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return handleError(c, err, "campaign_delete_failed")
	}
	cc.Logger.WithField("campaign_id", id).Info("campaign deleted")
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Campaign deleted successfully"}))
}
