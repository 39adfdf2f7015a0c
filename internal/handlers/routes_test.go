package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/paste-go/internal/handlers"
	"github.com/serroba/paste-go/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multipartFile builds a body with content uploaded as a file part.
func multipartFile(t *testing.T, field, content string) (string, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "paste.txt")
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return "Content-Type: " + w.FormDataContentType(), &buf
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewMux()
	humaAPI := humachi.New(router, huma.DefaultConfig("Paste API", "1.0.0"))
	humaAPI.UseMiddleware(middleware.RequestMeta(humaAPI))

	api := humatest.Wrap(t, humaAPI)
	f := newFixture(t, handlers.Config{})
	handlers.RegisterRoutes(api, f.handler)

	t.Run("GET / serves the help page", func(t *testing.T) {
		resp := api.Get("/")

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, resp.Body.String(), "<h1>paste</h1>")
	})

	var created handlers.UploadBody

	t.Run("POST / stores a file part", func(t *testing.T) {
		header, body := multipartFile(t, "c", "routed content")

		resp := api.Post("/", header, body)

		require.Equal(t, http.StatusCreated, resp.Code)
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
		assert.Equal(t, handlers.StatusCreated, created.Status)
		assert.Equal(t, created.URL, resp.Header().Get("Location"))
	})

	t.Run("POST / again reports the existing paste", func(t *testing.T) {
		header, body := multipartFile(t, "content", "routed content")

		resp := api.Post("/", header, body)

		assert.Equal(t, http.StatusFound, resp.Code)
		assert.Contains(t, resp.Body.String(), `"status":"existed"`)
	})

	t.Run("GET /{key} serves the content", func(t *testing.T) {
		resp := api.Get("/" + created.Short)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "routed content", resp.Body.String())
	})

	t.Run("GET /{key} of an unknown key is 404", func(t *testing.T) {
		resp := api.Get("/zzzzz")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("DELETE /{key} removes the paste", func(t *testing.T) {
		resp := api.Delete("/" + created.ID)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, http.StatusNotFound, api.Get("/"+created.Short).Code)
	})
}
