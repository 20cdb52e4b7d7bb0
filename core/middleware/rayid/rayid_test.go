package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewGeneratesRayID(t *testing.T) {
	app := fiber.New()
	app.Use(New())

	var captured string
	app.Get("/", func(c *fiber.Ctx) error {
		captured, _ = c.Locals(LocalsKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	assert.NoError(t, err)
	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, resp.Header.Get(HeaderName))
}

func TestNewHonorsSuppliedRayID(t *testing.T) {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderName, "trace-123")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, "trace-123", resp.Header.Get(HeaderName))
}
