package api

import (
	"github.com/casefold/tabular/internal/config"
	"github.com/casefold/tabular/internal/detect"
	"github.com/casefold/tabular/internal/infrastructure"
	"github.com/casefold/tabular/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// shared conflict classifier.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination     pagination.Config
	Classifier     *detect.Classifier
	RebuildWorkers int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Locks:     infra.Locks,
			Storage:   infra.Storage,
		},
		Pagination:     cfg.API.Pagination,
		Classifier:     detect.NewClassifier(cfg.Engine.Detector()),
		RebuildWorkers: cfg.Engine.RebuildWorkers,
	}
}
