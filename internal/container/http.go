package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do"
	"github.com/serroba/paste-go/internal/analytics"
	"github.com/serroba/paste-go/internal/handlers"
	"github.com/serroba/paste-go/internal/health"
	"github.com/serroba/paste-go/internal/kv"
	"github.com/serroba/paste-go/internal/metrics"
	"github.com/serroba/paste-go/internal/middleware"
	"github.com/serroba/paste-go/internal/paste"
	"github.com/serroba/paste-go/internal/render"
	"go.uber.org/zap"
)

// requestOverhead is the room left for multipart framing above MaxLength.
const requestOverhead = 1 << 20

// MetricsPackage provides a *metrics.Recorder on its own registry, with
// the Go runtime and process collectors.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Recorder, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return metrics.NewRecorder(reg), nil
	})
}

// HTTPPackage provides the chi router and the huma API with every route
// registered. Invoking huma.API builds the whole object graph.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*handlers.PasteHandler, error) {
		opts := do.MustInvoke[*Options](i)

		repo, err := do.Invoke[paste.Repository](i)
		if err != nil {
			return nil, err
		}

		events, err := do.Invoke[analytics.Publishers](i)
		if err != nil {
			return nil, err
		}

		return handlers.NewPasteHandler(
			repo,
			handlers.Config{BaseURL: opts.PublicURL(), MaxLength: opts.MaxLength},
			render.NewHighlighter(render.DefaultStyle),
			events,
			do.MustInvoke[*metrics.Recorder](i),
			do.MustInvoke[*zap.Logger](i).Named("http"),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)

		engine, err := do.Invoke[kv.Engine](i)
		if err != nil {
			return nil, err
		}

		pasteHandler, err := do.Invoke[*handlers.PasteHandler](i)
		if err != nil {
			return nil, err
		}

		router.Use(chimiddleware.Recoverer)
		router.Use(chimiddleware.RequestSize(opts.MaxLength + requestOverhead))
		router.Handle("/metrics", do.MustInvoke[*metrics.Recorder](i).Handler())

		api := humachi.New(router, huma.DefaultConfig("Paste", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		health.RegisterRoutes(api, health.NewHandler(opts.Engine, engine))
		handlers.RegisterRoutes(api, pasteHandler)

		return api, nil
	})
}
