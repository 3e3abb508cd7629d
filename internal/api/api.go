// Package api builds the /api module: receipt intake and session control
// in front of the workflow engine, plus the receipt read endpoints.
package api

import (
	"net/http"

	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/infrastructure"
	"github.com/JaimeStill/tally/pkg/middleware"
	"github.com/JaimeStill/tally/pkg/module"
)

// NewModule wires the domain systems and returns them mounted under
// cfg.API.BasePath. Middleware runs outermost first: request id, CORS,
// access log, then panic recovery closest to the handlers.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	for _, mw := range []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
	} {
		m.Use(mw)
	}

	return m, nil
}
