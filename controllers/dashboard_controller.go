package controller

import (
	"github.com/gofiber/fiber/v2"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

type DashboardController struct {
	Dashboard *services.Dashboard
}

func NewDashboardController(dashboard *services.Dashboard) *DashboardController {
	return &DashboardController{Dashboard: dashboard}
}

// GetDashboardStats returns the summary cards for the caller's role
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := dc.Dashboard.Stats(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return handleError(c, err, "dashboard_stats_failed")
	}
	return c.JSON(utils.SuccessResponse(stats))
}
