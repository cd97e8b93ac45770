package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asistanapp/panel-service/internal/observability"
	"github.com/asistanapp/panel-service/pkg/apperrors"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp() *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestErrorEnvelope(t *testing.T) {
	app := newTestApp()
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("conversation", nil)
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("subject is required", map[string]any{"field": "subject"})
	})
	app.Get("/rows", func(c *fiber.Ctx) error {
		return pgx.ErrNoRows
	})

	t.Run("domain error", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		envelope := decodeError(t, resp)
		assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
		assert.Equal(t, "conversation not found", envelope.Error.Message)
	})

	t.Run("details passthrough", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/invalid", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		envelope := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)
		assert.Equal(t, "subject", envelope.Error.Details["field"])
	})

	t.Run("bare row errors map to 404", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rows", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPanicRecovery(t *testing.T) {
	app := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	envelope := decodeError(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp()
	app.Post("/login", RateLimit(2, time.Minute), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	envelope := decodeError(t, resp)
	assert.Equal(t, "RATE_LIMITED", envelope.Error.Code)
}
