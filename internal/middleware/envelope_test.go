package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnvelopeApp(h fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Use(Envelope())
	app.Get("/", h)
	return app
}

func call(t *testing.T, app *fiber.App) (int, map[string]interface{}, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body, string(raw)
}

func TestEnvelope_Success(t *testing.T) {
	app := newEnvelopeApp(func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": 1})
	})

	status, body, _ := call(t, app)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, body["response"])
	assert.Nil(t, body["error"])
}

func TestEnvelope_SuccessShapes(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		response interface{}
	}{
		{"empty list stays a list", `[]`, []interface{}{}},
		{"null becomes an object", `null`, map[string]interface{}{}},
		{"empty object", `{}`, map[string]interface{}{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newEnvelopeApp(func(c *fiber.Ctx) error {
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.SendString(tc.raw)
			})

			status, body, _ := call(t, app)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, tc.response, body["response"])
		})
	}
}

func TestEnvelope_ErrorListKeepsDetails(t *testing.T) {
	app := newEnvelopeApp(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).JSON([]string{"a", "b"})
	})

	_, body, _ := call(t, app)
	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Multiple errors occurred", errBody["message"])
	assert.Equal(t, []interface{}{"a", "b"}, errBody["details"])
}

func TestEnvelope_ErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		payload interface{}
		message string
	}{
		{"detail", fiber.Map{"detail": "Not found."}, "Not found."},
		{"message", fiber.Map{"message": "Bad thing"}, "Bad thing"},
		{"detail list", fiber.Map{"detail": []string{"first", "second"}}, "first"},
		{"field errors", fiber.Map{"title": []string{"This field is required."}}, "An error occurred"},
		{"list", []string{"a", "b"}, "Multiple errors occurred"},
		{"scalar", "plain failure", "plain failure"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newEnvelopeApp(func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusBadRequest).JSON(tc.payload)
			})

			status, body, _ := call(t, app)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, body["success"])
			assert.Nil(t, body["response"])

			errBody, ok := body["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tc.message, errBody["message"])
		})
	}
}

func TestEnvelope_DetailsKeepPayload(t *testing.T) {
	app := newEnvelopeApp(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"email": []string{"Enter a valid email address."}})
	})

	_, body, _ := call(t, app)
	details := body["error"].(map[string]interface{})["details"]
	assert.Equal(t, map[string]interface{}{"email": []interface{}{"Enter a valid email address."}}, details)
}

func TestEnvelope_AlreadyWrapped(t *testing.T) {
	app := newEnvelopeApp(func(c *fiber.Ctx) error {
		return c.JSON(models.SuccessResponse(fiber.Map{"ok": true}))
	})

	_, body, _ := call(t, app)
	assert.Equal(t, map[string]interface{}{"ok": true}, body["response"])
}

func TestEnvelope_PassesThroughNonJSON(t *testing.T) {
	app := newEnvelopeApp(func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	status, _, raw := call(t, app)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", raw)
}

func TestErrorHandler(t *testing.T) {
	app := newEnvelopeApp(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "Method not allowed")
	})
	status, body, _ := call(t, app)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body["error"].(map[string]interface{})["message"])

	app = newEnvelopeApp(func(c *fiber.Ctx) error {
		return errors.New("boom")
	})
	status, body, _ = call(t, app)
	assert.Equal(t, http.StatusInternalServerError, status)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "Internal Server Error", errBody["message"])
	assert.Equal(t, "boom", errBody["details"])
}

func TestWrap(t *testing.T) {
	resp := Wrap(http.StatusCreated, nil)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{}, resp.Response)

	resp = Wrap(http.StatusNotFound, nil)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "An error occurred", resp.Error.Message)
}
