package api

import (
	"fmt"

	"github.com/JaimeStill/tally/internal/images"
	"github.com/JaimeStill/tally/internal/notify"
	"github.com/JaimeStill/tally/internal/receipts"
	"github.com/JaimeStill/tally/internal/reminders"
	"github.com/JaimeStill/tally/internal/vision"
	"github.com/JaimeStill/tally/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Receipts  receipts.System
	Vision    vision.System
	Images    *images.Store
	Notifier  notify.System
	Reminders reminders.System
	Engine    *workflow.Engine
}

// NewDomain creates all domain systems from the API runtime and wires them
// into the receipt workflow engine.
func NewDomain(runtime *Runtime) (*Domain, error) {
	receiptsSystem := receipts.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	visionSystem := vision.New(&runtime.Vision, runtime.Logger)
	imageStore := images.New(runtime.Storage, runtime.Logger)
	notifier := notify.New(&runtime.Notifier, runtime.Logger)
	scheduler := reminders.New(&runtime.Reminders, runtime.Logger)

	engine, err := workflow.NewEngine(
		runtime.Sessions,
		&workflow.Runtime{
			Classifier:   visionSystem,
			Extractor:    visionSystem,
			Uploader:     imageStore,
			Receipts:     receiptsSystem,
			Notifier:     notifier,
			Reminders:    scheduler,
			Logger:       runtime.Logger.With("system", "workflow"),
			CallTimeout:  runtime.Workflow.CallTimeoutDuration(),
			UploadFolder: runtime.Workflow.UploadFolder,
		},
		workflow.Options{
			AttemptLimit: runtime.Workflow.AttemptLimit,
			MaxSteps:     runtime.Workflow.MaxSteps,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("workflow engine: %w", err)
	}

	return &Domain{
		Receipts:  receiptsSystem,
		Vision:    visionSystem,
		Images:    imageStore,
		Notifier:  notifier,
		Reminders: scheduler,
		Engine:    engine,
	}, nil
}
