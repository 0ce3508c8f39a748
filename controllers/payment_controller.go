package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

type PaymentController struct {
	Payments *services.Payments
	Logger   logrus.FieldLogger
}

func NewPaymentController(payments *services.Payments, logger logrus.FieldLogger) *PaymentController {
	return &PaymentController{
		Payments: payments,
		Logger:   logger,
	}
}

// GetPayments lists visible payments. The customer comes from the route or
// the customer_id query parameter.
func (pc *PaymentController) GetPayments(c *fiber.Ctx) error {
	customerID := c.Params("id", c.Query("customer_id"))
	payments, err := pc.Payments.List(c.UserContext(), middleware.CallerFrom(c), customerID)
	if err != nil {
		return handleError(c, err, "payment_list_failed")
	}
	return c.JSON(utils.SuccessResponse(payments))
}

func (pc *PaymentController) CreatePayment(c *fiber.Ctx) error {
	var input services.PaymentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	payment, err := pc.Payments.Create(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), input)
	if err != nil {
		return handleError(c, err, "payment_create_failed")
	}
	pc.Logger.WithFields(logrus.Fields{
		"payment_id":  payment.ID,
		"customer_id": payment.CustomerID,
		"currency":    payment.Currency,
	}).Info("payment recorded")
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(payment))
}

func (pc *PaymentController) UpdatePayment(c *fiber.Ctx) error {
	var input services.PaymentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	payment, err := pc.Payments.Update(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), input)
	if err != nil {
		return handleError(c, err, "payment_update_failed")
	}
	return c.JSON(utils.SuccessResponse(payment))
}

func (pc *PaymentController) DeletePayment(c *fiber.Ctx) error {
	if err := pc.Payments.Delete(c.UserContext(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return handleError(c, err, "payment_delete_failed")
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Payment deleted successfully"}))
}

// GetSummary totals a customer's payments per currency
func (pc *PaymentController) GetSummary(c *fiber.Ctx) error {
	summary, err := pc.Payments.Summary(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return handleError(c, err, "payment_summary_failed")
	}
	return c.JSON(utils.SuccessResponse(summary))
}
