package api

import (
	"net/http"

	"github.com/JaimeStill/tally/internal/intake"
	"github.com/JaimeStill/tally/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	intakeHandler := intake.NewHandler(domain.Engine, runtime.Logger, runtime.MaxUploadSize)

	groups := append(
		intakeHandler.Routes(),
		domain.Receipts.Handler().Routes(),
	)
	routes.Register(mux, groups...)

	runtime.Logger.Debug("api routes registered", "routes", routes.Patterns(groups...))
}
