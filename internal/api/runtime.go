package api

import (
	"github.com/JaimeStill/tally/internal/config"
	"github.com/JaimeStill/tally/internal/infrastructure"
	"github.com/JaimeStill/tally/internal/notify"
	"github.com/JaimeStill/tally/internal/reminders"
	"github.com/JaimeStill/tally/internal/vision"
	"github.com/JaimeStill/tally/pkg/pagination"
)

// Runtime is the slice of process state the API's domain systems are
// built from: the shared infrastructure with an api-scoped logger, plus
// the config sections those systems read.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	MaxUploadSize int64
	Workflow      config.WorkflowConfig
	Vision        vision.Config
	Notifier      notify.Config
	Reminders     reminders.Config
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
		Workflow:       cfg.Workflow,
		Vision:         cfg.Vision,
		Notifier:       cfg.Notifier,
		Reminders:      cfg.Reminders,
	}
}
