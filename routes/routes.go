package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	controller "metahire/controllers"
	"metahire/metrics"
	"metahire/middleware"
	"metahire/services"
	"metahire/utils"
)

const requestLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Services         *services.Services
	Metrics          *metrics.Metrics
	Gatherer         prometheus.Gatherer
	RateLimitStorage fiber.Storage
	CORS             middleware.CORSConfig
	RateLimitLogin   int
	RateLimitImport  int
	SecureCookies    bool
	Logger           logrus.FieldLogger
	// DisableRequestLog silences the per-request log line.
	DisableRequestLog bool
}

// NewApp builds the Fiber application with every route registered.
func NewApp(d Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "metahire",
		BodyLimit: 6 << 20,
		// Params, query and form values outlive the request in stored rows
		// and logs, so they must not alias fasthttp's reused buffers.
		Immutable:    true,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.Metrics(d.Metrics))
	app.Use(middleware.CORS(d.CORS))

	SetupRoutes(app, d)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code == fiber.StatusInternalServerError {
		utils.LogError("unhandled_request_error", err, map[string]interface{}{"path": c.Path()})
	}
	return utils.ErrorResponse(c, code, err.Error(), nil)
}

func SetupRoutes(app *fiber.App, d Dependencies) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	SetupAuthRoutes(app, d)
	SetupAPIRoutes(app, d)

	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Route not found", nil)
	})
}

func requestLogger(d Dependencies) fiber.Handler {
	if d.DisableRequestLog {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return logger.New(logger.Config{Format: requestLogFormat})
}

func SetupAuthRoutes(app *fiber.App, d Dependencies) {
	authController := controller.NewAuthController(d.Services.Auth, d.Logger.WithField("component", "auth"), d.SecureCookies)

	auth := app.Group("/auth", requestLogger(d))

	// Public auth endpoints
	limited := middleware.LoginRateLimiter(d.RateLimitLogin, d.RateLimitStorage)
	auth.Post("/register", limited, authController.Register)
	auth.Post("/login", limited, authController.Login)

	// Protected auth endpoints
	protected := middleware.Protected(d.Services.Auth)
	auth.Post("/logout", protected, authController.Logout)
	auth.Get("/me", protected, authController.Me)

	d.Logger.Info("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, d Dependencies) {
	svc := d.Services
	campaignController := controller.NewCampaignController(svc.Campaigns, d.Logger.WithField("component", "campaigns"))
	leadController := controller.NewLeadController(svc.Leads, svc.Pipeline, svc.Importer, d.Logger.WithField("component", "leads"))
	customerController := controller.NewCustomerController(svc.Customers, d.Logger.WithField("component", "customers"))
	paymentController := controller.NewPaymentController(svc.Payments, d.Logger.WithField("component", "payments"))
	staffController := controller.NewStaffController(svc.Admin, d.Logger.WithField("component", "staff"))
	dashboardController := controller.NewDashboardController(svc.Dashboard)

	// API group with versioning and protection
	api := app.Group("/api/v1", requestLogger(d), middleware.Protected(svc.Auth))
	superadmin := middleware.RequireSuperadmin()

	// Dashboard routes
	api.Get("/dashboard/stats", dashboardController.GetDashboardStats)

	// Campaign routes
	campaigns := api.Group("/campaigns")
	campaigns.Get("/", campaignController.GetCampaigns)
	campaigns.Post("/", superadmin, campaignController.CreateCampaign)
	campaigns.Get("/:id", campaignController.GetCampaign)
	campaigns.Put("/:id", superadmin, campaignController.UpdateCampaign)
	campaigns.Delete("/:id", superadmin, campaignController.DeleteCampaign)

	// Lead routes
	leads := api.Group("/leads")
	leads.Get("/", leadController.GetLeads)
	leads.Post("/", superadmin, leadController.CreateLead)
	leads.Get("/export", leadController.ExportLeads)
	leads.Post("/import", superadmin, middleware.ImportRateLimiter(d.RateLimitImport, d.RateLimitStorage), leadController.ImportLeads)
	leads.Post("/bulk-delete", superadmin, leadController.BulkDeleteLeads)
	leads.Post("/assign", superadmin, leadController.AssignLeads)
	leads.Get("/:id", leadController.GetLead)
	leads.Put("/:id", leadController.UpdateLead)
	leads.Delete("/:id", superadmin, leadController.DeleteLead)
	leads.Post("/:id/status", leadController.TransitionLead)
	leads.Post("/:id/comments", leadController.AddComment)
	leads.Get("/:id/history", leadController.GetHistory)

	// Customer routes
	customers := api.Group("/customers")
	customers.Get("/", customerController.GetCustomers)
	customers.Get("/:id", customerController.GetCustomer)
	customers.Put("/:id", customerController.UpdateCustomer)
	customers.Delete("/:id", superadmin, customerController.DeleteCustomer)
	customers.Get("/:id/payments", paymentController.GetPayments)
	customers.Post("/:id/payments", paymentController.CreatePayment)
	customers.Get("/:id/payments/summary", paymentController.GetSummary)

	// Payment routes
	payments := api.Group("/payments")
	payments.Get("/", paymentController.GetPayments)
	payments.Put("/:id", paymentController.UpdatePayment)
	payments.Delete("/:id", paymentController.DeletePayment)

	// Staff administration (superadmin only)
	staff := api.Group("/staff", superadmin)
	staff.Get("/", staffController.GetStaff)
	staff.Post("/", staffController.CreateStaff)
	staff.Put("/:id", staffController.UpdateStaff)
	staff.Delete("/:id", staffController.DeleteStaff)
	staff.Get("/:id/assignments", staffController.GetAssignments)
	staff.Post("/:id/assignments", staffController.AssignCampaign)
	api.Delete("/assignments/:id", superadmin, staffController.UnassignCampaign)

	d.Logger.Info("API routes initialized successfully")
}
