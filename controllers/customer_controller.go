package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

type CustomerController struct {
	Customers *services.Customers
	Logger    logrus.FieldLogger
}

func NewCustomerController(customers *services.Customers, logger logrus.FieldLogger) *CustomerController {
	return &CustomerController{
		Customers: customers,
		Logger:    logger,
	}
}

func (cc *CustomerController) GetCustomers(c *fiber.Ctx) error {
	customers, err := cc.Customers.List(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return handleError(c, err, "customer_list_failed")
	}
	return c.JSON(utils.SuccessResponse(customers))
}

func (cc *CustomerController) GetCustomer(c *fiber.Ctx) error {
	customer, err := cc.Customers.Get(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return handleError(c, err, "customer_get_failed")
	}
	return c.JSON(utils.SuccessResponse(customer))
}

func (cc *CustomerController) UpdateCustomer(c *fiber.Ctx) error {
	var input services.CustomerUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	customer, err := cc.Customers.Update(c.UserContext(), middleware.CallerFrom(c), c.Params("id"), input)
	if err != nil {
		return handleError(c, err, "customer_update_failed")
	}
	return c.JSON(utils.SuccessResponse(customer))
}

// DeleteCustomer removes a customer and its payments
func (cc *CustomerController) DeleteCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := cc.Customers.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return handleError(c, err, "customer_delete_failed")
	}
	cc.Logger.WithField("customer_id", id).Info("customer deleted")
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Customer deleted successfully"}))
}
