package container_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/paste-go/internal/container"
	"github.com/serroba/paste-go/internal/kv"
	"github.com/serroba/paste-go/internal/messaging"
	"github.com/serroba/paste-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.EnginePackage(injector)
	container.StorePackage(injector)
	container.PublisherGroupPackage(injector)
	container.MetricsPackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func testOptions() *container.Options {
	return &container.Options{
		Port:       8888,
		Engine:     container.EngineMemory,
		CodeLength: 5,
		MaxLength:  1 << 20,
		LogFormat:  "json",
		LogLevel:   "error",
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("builds json and console loggers", func(t *testing.T) {
		for _, format := range []string{"json", "console"} {
			logger, err := container.NewLogger(format, "debug")

			require.NoError(t, err, format)
			assert.NotNil(t, logger)
		}
	})

	t.Run("rejects an unknown level", func(t *testing.T) {
		_, err := container.NewLogger("json", "loud")

		assert.Error(t, err)
	})

	t.Run("rejects an unknown format", func(t *testing.T) {
		_, err := container.NewLogger("xml", "info")

		assert.Error(t, err)
	})
}

func TestOptions_PublicURL(t *testing.T) {
	t.Run("defaults to localhost and the port", func(t *testing.T) {
		assert.Equal(t, "http://localhost:8888", testOptions().PublicURL())
	})

	t.Run("prefers BaseURL", func(t *testing.T) {
		opts := testOptions()
		opts.BaseURL = "https://paste.example.com"

		assert.Equal(t, "https://paste.example.com", opts.PublicURL())
	})
}

func TestEnginePackage(t *testing.T) {
	t.Run("provides the memory engine", func(t *testing.T) {
		injector := newInjector(t, testOptions())

		engine, err := do.Invoke[kv.Engine](injector)

		require.NoError(t, err)
		assert.IsType(t, &store.MemoryEngine{}, engine)
	})

	t.Run("provides the sqlite engine", func(t *testing.T) {
		opts := testOptions()
		opts.Engine = container.EngineSQLite
		opts.DBPath = filepath.Join(t.TempDir(), "paste.db")

		injector := newInjector(t, opts)

		engine, err := do.Invoke[kv.Engine](injector)

		require.NoError(t, err)
		assert.IsType(t, &store.SQLiteEngine{}, engine)
	})

	t.Run("rejects an unknown engine", func(t *testing.T) {
		opts := testOptions()
		opts.Engine = "tape"

		_, err := do.Invoke[kv.Engine](newInjector(t, opts))

		assert.Error(t, err)
	})
}

func TestPublisherGroupPackage(t *testing.T) {
	t.Run("uses the no-op publisher when events are off", func(t *testing.T) {
		group, err := do.Invoke[*messaging.PublisherGroup](newInjector(t, testOptions()))

		require.NoError(t, err)
		assert.IsType(t, messaging.NoopPublisher{}, group.Publisher())
	})
}

func TestHTTPPackage(t *testing.T) {
	injector := newInjector(t, testOptions())

	_ = do.MustInvoke[huma.API](injector)
	router := do.MustInvoke[*chi.Mux](injector)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec
	}

	t.Run("serves health", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"engine":"memory"`)
	})

	t.Run("stores and serves an upload", func(t *testing.T) {
		var body bytes.Buffer

		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("c", "wired"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())

		rec := serve(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		location := rec.Header().Get("Location")
		require.NotEmpty(t, location)

		view := serve(httptest.NewRequest(http.MethodGet, location[len("http://localhost:8888"):], nil))
		assert.Equal(t, http.StatusOK, view.Code)
		assert.Equal(t, "wired", view.Body.String())
	})

	t.Run("exposes metrics", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "paste_store_operations_total")
		assert.Contains(t, rec.Body.String(), "go_goroutines")
	})
}
