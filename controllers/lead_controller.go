package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"metahire/middleware"
	"metahire/models"
	"metahire/services"
	"metahire/utils"
)

const maxImportSize = 5 << 20

type LeadController struct {
	Leads    *services.Leads
	Pipeline *services.Pipeline
	Importer *services.Importer
	Logger   logrus.FieldLogger
}

func NewLeadController(leads *services.Leads, pipeline *services.Pipeline, importer *services.Importer, logger logrus.FieldLogger) *LeadController {
	return &LeadController{
		Leads:    leads,
		Pipeline: pipeline,
		Importer: importer,
		Logger:   logger,
	}
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type assignRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,dive,required"`
	StaffID string   `json:"staff_id"`
}

func leadQuery(c *fiber.Ctx) services.LeadQuery {
	return services.LeadQuery{
		Status:     models.LeadStatus(c.Query("status")),
		CampaignID: c.Query("campaign_id"),
		AssignedTo: c.Query("assigned_to"),
		Search:     c.Query("search"),
	}
}

// CreateLead adds a lead by hand
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var input services.LeadInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	lead, err := lc.Leads.Create(c.UserContext(), middleware.CallerFrom(c), input)
	if err != nil {
		return handleError(c, err, "lead_create_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(lead))
}

// GetLeads returns the visible leads, filtered by status, campaign,
// assignee and a free-text search
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	leads, err := lc.Leads.List(c.UserContext(), middleware.CallerFrom(c), leadQuery(c))
	if err != nil {
		return handleError(c, err, "lead_list_failed")
	}
	return c.JSON(utils.SuccessResponse(leads))
}

func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := lc.Leads.Get(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return handleError(c, err, "lead_get_failed")
	}
	return c.JSON(utils.SuccessResponse(lead))
}

func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	var input services.LeadUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	lead, err := lc.Leads.Update(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), input)
	if err != nil {
		return handleError(c, err, "lead_update_failed")
	}
	return c.JSON(utils.SuccessResponse(lead))
}

func (lc *LeadController) DeleteLead(c *fiber.Ctx) error {
	if _, err := lc.Leads.Delete(c.UserContext(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return handleError(c, err, "lead_delete_failed")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Lead deleted successfully"}))
}

// BulkDeleteLeads removes every lead listed in the body
func (lc *LeadController) BulkDeleteLeads(c *fiber.Ctx) error {
	var req idsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	deleted, err := lc.Leads.Delete(c.UserContext(), middleware.CallerFrom(c), req.IDs...)
	if err != nil {
		return handleError(c, err, "lead_bulk_delete_failed")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": deleted}))
}

// AssignLeads hands the listed leads to a staff member, or unassigns them
// when staff_id is empty
func (lc *LeadController) AssignLeads(c *fiber.Ctx) error {
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	updated, err := lc.Leads.Assign(c.UserContext(), middleware.CallerFrom(c), req.IDs, req.StaffID)
	if err != nil {
		return handleError(c, err, "lead_assign_failed")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"updated": updated}))
}

// TransitionLead changes the pipeline status of a lead. A closed_won lead
// whose customer could not be created is answered with 207 and the updated
// lead.
func (lc *LeadController) TransitionLead(c *fiber.Ctx) error {
	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	res, err := lc.Pipeline.Transition(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), models.LeadStatus(req.Status))
	if services.IsPartialFailure(err) {
		utils.LogError("lead_transition_partial", err, map[string]interface{}{"lead_id": res.Lead.ID})
		return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
			"success": false,
			"error":   services.MsgCustomerNotCreated,
			"data":    res,
		})
	}
	if err != nil {
		return handleError(c, err, "lead_transition_failed")
	}
	return c.JSON(utils.SuccessResponse(res))
}

func (lc *LeadController) AddComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	entry, err := lc.Pipeline.AddComment(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), req.Text)
	if err != nil {
		return handleError(c, err, "lead_comment_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(entry))
}

func (lc *LeadController) GetHistory(c *fiber.Ctx) error {
	rows, err := lc.Pipeline.History(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return handleError(c, err, "lead_history_failed")
	}
	return c.JSON(utils.SuccessResponse(rows))
}

// ImportLeads creates leads from an uploaded CSV file. Optional form fields
// campaign_id and assigned_to place the imported leads.
func (lc *LeadController) ImportLeads(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File upload error", err)
	}
	if file.Size > maxImportSize {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File too large (max 5MB)", nil)
	}

	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open file", err)
	}
	defer src.Close()

	opts := services.ImportOptions{
		CampaignID: c.FormValue("campaign_id"),
		AssignedTo: c.FormValue("assigned_to"),
	}
	res, err := lc.Importer.Import(c.UserContext(), middleware.CallerFrom(c), src, opts)
	if err != nil && res != nil {
		utils.LogError("lead_import_stopped", err, map[string]interface{}{
			"file":         file.Filename,
			"failed_batch": *res.FailedBatch,
			"imported":     res.Imported,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Import stopped before completion",
			"data":    res,
		})
	}
	if err != nil {
		return handleError(c, err, "lead_import_failed")
	}

	lc.Logger.WithFields(logrus.Fields{"file": file.Filename, "imported": res.Imported}).Info("leads imported")
	return c.JSON(utils.SuccessResponse(res))
}

// ExportLeads downloads the visible leads as CSV, or as XLSX with
// format=xlsx
func (lc *LeadController) ExportLeads(c *fiber.Ctx) error {
	leads, err := lc.Leads.List(c.UserContext(), middleware.CallerFrom(c), leadQuery(c))
	if err != nil {
		return handleError(c, err, "lead_export_failed")
	}

	name := "leads_export_" + time.Now().Format("20060102")
	switch c.Query("format", "csv") {
	case "csv":
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, "attachment; filename="+name+".csv")
		err = services.WriteLeadsCSV(c, leads)
	case "xlsx":
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, "attachment; filename="+name+".xlsx")
		err = services.WriteLeadsXLSX(c, leads)
	default:
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported export format", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate export", err)
	}
	return nil
}
