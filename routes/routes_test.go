package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	gormlogger "gorm.io/gorm/logger"

	"metahire/metrics"
	"metahire/middleware"
	"metahire/models"
	"metahire/services"
	"metahire/session"
	"metahire/store"
	"metahire/store/gormstore"
)

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t     *testing.T
	app   *fiber.App
	svc   *services.Services
	admin string
}

func newHarness(t *testing.T, wrap func(store.Store) store.Store) *harness {
	t.Helper()
	db, err := gormstore.OpenMemory(context.Background(), gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	var st store.Store = db
	if wrap != nil {
		st = wrap(db)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := services.New(st, session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour), m, log, services.Options{
		Hasher: services.PasswordHasher{Cost: bcrypt.MinCost},
	})

	app := NewApp(Dependencies{
		Services:          svc,
		Metrics:           m,
		Gatherer:          reg,
		CORS:              middleware.DefaultCORSConfig(),
		RateLimitLogin:    100,
		RateLimitImport:   100,
		Logger:            log,
		DisableRequestLog: true,
	})

	h := &harness{t: t, app: app, svc: svc}
	_, err = svc.Auth.EnsureSuperadmin(context.Background(), services.NewAccount{Email: "owner@example.com", Password: "owner-pass"})
	require.NoError(t, err)
	h.admin = h.login("owner@example.com", "owner-pass")
	return h
}

func (h *harness) send(req *http.Request, token string) (int, envelope) {
	h.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env envelope
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(h.t, json.Unmarshal(body, &env), string(body))
	}
	return resp.StatusCode, env
}

func (h *harness) do(method, path, token string, body interface{}) (int, envelope) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return h.send(req, token)
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	status, env := h.do("POST", "/auth/login", "", fiber.Map{"email": email, "password": password})
	require.Equal(h.t, fiber.StatusOK, status, env.Error)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (h *harness) staff(email string) (*models.Profile, string) {
	h.t.Helper()
	status, env := h.do("POST", "/api/v1/staff", h.admin, fiber.Map{"email": email, "password": "staff-pass", "full_name": "Staff Member"})
	require.Equal(h.t, fiber.StatusCreated, status, env.Error)
	profile := decode[models.Profile](h.t, env)
	return &profile, h.login(email, "staff-pass")
}

func (h *harness) campaign(name string) models.Campaign {
	h.t.Helper()
	status, env := h.do("POST", "/api/v1/campaigns", h.admin, fiber.Map{"name": name})
	require.Equal(h.t, fiber.StatusCreated, status, env.Error)
	return decode[models.Campaign](h.t, env)
}

func (h *harness) lead(body fiber.Map) models.Lead {
	h.t.Helper()
	status, env := h.do("POST", "/api/v1/leads", h.admin, body)
	require.Equal(h.t, fiber.StatusCreated, status, env.Error)
	return decode[models.Lead](h.t, env)
}

func TestCampaignLeadConversionFlow(t *testing.T) {
	h := newHarness(t, nil)

	c1 := h.campaign("Spring outreach")
	s1, staffToken := h.staff("s1@example.com")

	status, env := h.do("POST", "/api/v1/staff/"+s1.ID+"/assignments", h.admin, fiber.Map{"campaign_id": c1.ID})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	status, _ = h.do("POST", "/api/v1/staff/"+s1.ID+"/assignments", h.admin, fiber.Map{"campaign_id": c1.ID})
	assert.Equal(t, fiber.StatusConflict, status)

	l1 := h.lead(fiber.Map{"first_name": "Ada", "last_name": "Lovelace", "campaign_id": c1.ID})
	assert.Equal(t, models.LeadStatusNew, l1.Status)
	assert.Nil(t, l1.AssignedTo)

	status, env = h.do("GET", "/api/v1/leads", staffToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	leads := decode[[]models.Lead](t, env)
	require.Len(t, leads, 1)
	assert.Equal(t, l1.ID, leads[0].ID)

	status, env = h.do("POST", "/api/v1/leads/"+l1.ID+"/status", staffToken, fiber.Map{"status": "won"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = h.do("POST", "/api/v1/leads/"+l1.ID+"/status", staffToken, fiber.Map{"status": "closed_won"})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	res := decode[services.TransitionResult](t, env)
	require.NotNil(t, res.Customer)
	assert.Equal(t, l1.ID, *res.Customer.LeadID)
	assert.Equal(t, models.LeadStatusNew, *res.History.OldStatus)
	assert.Equal(t, models.LeadStatusClosedWon, res.History.NewStatus)

	status, env = h.do("GET", "/api/v1/customers", staffToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decode[[]models.Customer](t, env))

	status, _ = h.do("GET", "/api/v1/customers/"+res.Customer.ID, staffToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = h.do("GET", "/api/v1/customers", h.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.Customer](t, env), 1)

	status, env = h.do("POST", "/api/v1/customers/"+res.Customer.ID+"/payments", h.admin, fiber.Map{"amount": 250, "status": "paid"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	status, env = h.do("GET", "/api/v1/customers/"+res.Customer.ID+"/payments/summary", h.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []services.CurrencySummary{{Currency: "USD", Total: 250, Paid: 250}}, decode[[]services.CurrencySummary](t, env))

	status, env = h.do("GET", "/api/v1/leads/"+l1.ID+"/history", staffToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]models.LeadStatusHistory](t, env), 1)
}

func TestAccessControl(t *testing.T) {
	h := newHarness(t, nil)
	_, staffToken := h.staff("s2@example.com")

	status, _ := h.do("GET", "/api/v1/leads", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = h.do("POST", "/api/v1/campaigns", staffToken, fiber.Map{"name": "Mine"})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = h.do("GET", "/api/v1/staff", staffToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = h.do("GET", "/api/v1/leads/missing", h.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env := h.do("GET", "/api/v1/dashboard/stats", staffToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	stats := decode[map[string]int64](t, env)
	assert.Contains(t, stats, "my_leads")
	assert.NotContains(t, stats, "total_leads")

	status, _ = h.do("GET", "/api/v1/nowhere", h.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.staff("s3@example.com")

	status, env := h.do("GET", "/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)

	status, _ = h.do("POST", "/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = h.do("GET", "/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = h.do("POST", "/auth/login", "", fiber.Map{"email": "s3@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestImportAndExport(t *testing.T) {
	h := newHarness(t, nil)
	c := h.campaign("Imported")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("first,last,label,phone\nAda,Lovelace,Mobile,415 555 2671\nGrace,Hopper,,\n"))
	require.NoError(t, err)
	require.NoError(t, form.WriteField("campaign_id", c.ID))
	require.NoError(t, form.Close())

	req := httptest.NewRequest("POST", "/api/v1/leads/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	status, env := h.send(req, h.admin)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	res := decode[services.ImportResult](t, env)
	assert.Equal(t, 2, res.Imported)

	req = httptest.NewRequest("GET", "/api/v1/leads/export?campaign_id="+c.ID, nil)
	req.Header.Set("Authorization", "Bearer "+h.admin)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	csvBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(csvBody), "Ada,Lovelace,,+14155552671")
	assert.Equal(t, 3, strings.Count(string(csvBody), "\n"))

	status, _ = h.do("GET", "/api/v1/leads/export?format=pdf", h.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

type failingCustomers struct {
	store.Repository[models.Customer]
}

func (failingCustomers) Insert(context.Context, ...*models.Customer) error {
	return errors.New("customers table unavailable")
}

type customerlessStore struct {
	store.Store
}

func (s customerlessStore) Customers() store.Repository[models.Customer] {
	return failingCustomers{s.Store.Customers()}
}

func (s customerlessStore) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.Atomic(ctx, func(tx store.Store) error { return fn(customerlessStore{tx}) })
}

func TestTransitionPartialFailure(t *testing.T) {
	h := newHarness(t, func(st store.Store) store.Store { return customerlessStore{st} })
	lead := h.lead(fiber.Map{"first_name": "Ada"})

	status, env := h.do("POST", "/api/v1/leads/"+lead.ID+"/status", h.admin, fiber.Map{"status": "closed_won"})
	assert.Equal(t, fiber.StatusMultiStatus, status)
	assert.False(t, env.Success)
	assert.Equal(t, services.MsgCustomerNotCreated, env.Error)

	res := decode[services.TransitionResult](t, env)
	assert.Equal(t, models.LeadStatusClosedWon, res.Lead.Status)
	assert.Nil(t, res.Customer)

	status, env = h.do("GET", "/api/v1/leads/"+lead.ID, h.admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.LeadStatusClosedWon, decode[models.Lead](t, env).Status)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.do("GET", "/api/v1/campaigns", h.admin, nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/v1/campaigns`)
	assert.Contains(t, string(body), `crm_login_attempts_total{status="success"} 1`)
}

func TestRequestValuesOutliveTheRequest(t *testing.T) {
	h := newHarness(t, nil)
	assert.True(t, h.app.Config().Immutable)

	c1 := h.campaign("Retained ids")
	s1, staffToken := h.staff("retained@example.com")
	other, _ := h.staff("bystander@example.com")

	status, env := h.do("POST", "/api/v1/staff/"+s1.ID+"/assignments", h.admin, fiber.Map{"campaign_id": c1.ID})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	l1 := h.lead(fiber.Map{"first_name": "Ada", "last_name": "Lovelace", "campaign_id": c1.ID})

	// Unrelated traffic reuses the request buffers of the calls above.
	for _, path := range []string{
		"/api/v1/staff/" + other.ID + "/assignments",
		"/api/v1/campaigns/" + c1.ID,
		"/api/v1/leads?search=zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
		"/api/v1/dashboard/stats",
	} {
		status, env = h.do("GET", path, h.admin, nil)
		require.Equal(t, fiber.StatusOK, status, env.Error)
	}

	status, env = h.do("GET", "/api/v1/staff/"+s1.ID+"/assignments", h.admin, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assignments := decode[[]models.CampaignAssignment](t, env)
	require.Len(t, assignments, 1)
	assert.Equal(t, s1.ID, assignments[0].StaffID)
	assert.Equal(t, c1.ID, assignments[0].CampaignID)

	status, env = h.do("GET", "/api/v1/leads/"+l1.ID, staffToken, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	status, env = h.do("POST", "/api/v1/leads/"+l1.ID+"/status", staffToken, fiber.Map{"status": "contacted"})
	require.Equal(t, fiber.StatusOK, status, env.Error)
}
