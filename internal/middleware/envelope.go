package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/civicreport/civicreport-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// Envelope rewrites every JSON response into {success, response, error}.
// Non-JSON bodies and bodies that are already wrapped pass through.
func Envelope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			// the app error handler renders its own envelope
			return err
		}
		return wrap(c)
	}
}

func wrap(c *fiber.Ctx) error {
	resp := c.Response()
	if !strings.HasPrefix(string(resp.Header.ContentType()), fiber.MIMEApplicationJSON) {
		return nil
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil
	}

	var data interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil
	}

	if isWrapped(data) {
		return nil
	}

	status := resp.StatusCode()
	return c.Status(status).JSON(Wrap(status, data))
}

func isWrapped(data interface{}) bool {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return false
	}
	if _, ok := obj["success"]; !ok {
		return false
	}
	_, hasResponse := obj["response"]
	_, hasError := obj["error"]
	return hasResponse || hasError
}

// Wrap builds the envelope for decoded response data.
func Wrap(status int, data interface{}) models.Response {
	if status >= 200 && status < 300 {
		return models.SuccessResponse(data)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		return models.ErrorResponse(errorMessage(v), v)
	case []interface{}:
		return models.ErrorResponse("Multiple errors occurred", v)
	case nil:
		return models.ErrorResponse("An error occurred", nil)
	default:
		return models.ErrorResponse(fmt.Sprint(v), nil)
	}
}

func errorMessage(obj map[string]interface{}) string {
	for _, key := range []string{"detail", "message"} {
		if msg := asText(obj[key]); msg != "" {
			return msg
		}
	}
	return "An error occurred"
}

// asText renders a message value; lists contribute their first entry.
func asText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		if len(t) == 0 {
			return ""
		}
		return asText(t[0])
	default:
		return fmt.Sprint(t)
	}
}
