package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafetero/cafeteria-api/internal/application/dto"
	apphttp "github.com/cafetero/cafeteria-api/internal/interfaces/http"
	"github.com/cafetero/cafeteria-api/pkg/jwt"
)

const testSecret = "secreto-de-prueba"

// newProtectedApp monta una ruta protegida que refleja la identidad extraída
// por el middleware.
func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protegida", apphttp.AuthMiddleware(testSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": apphttp.GetUserID(c),
			"role":    apphttp.GetRole(c),
		})
	})
	return app
}

func TestAuthMiddleware_SinHeaderEs401(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protegida", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "MISSING_TOKEN", body.Code)
}

func TestAuthMiddleware_FormatoInvalidoEs401(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest("GET", "/protegida", nil)
	req.Header.Set("Authorization", "Basic abc123")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_TOKEN", body.Code)
}

func TestAuthMiddleware_TokenExpiradoEs401(t *testing.T) {
	app := newProtectedApp()

	token, err := jwt.Generate(testSecret, "user-1", "barista", "cafeteria-api", -5)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_FirmaIncorrectaEs401(t *testing.T) {
	app := newProtectedApp()

	token, err := jwt.Generate("otro-secreto", "user-1", "barista", "cafeteria-api", 60)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenValidoExponeIdentidad(t *testing.T) {
	app := newProtectedApp()

	token, err := jwt.Generate(testSecret, "user-7", "gerente", "cafeteria-api", 60)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user-7", body["user_id"])
	assert.Equal(t, "gerente", body["role"])
}
