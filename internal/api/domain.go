package api

import (
	"github.com/casefold/tabular/internal/candidates"
	"github.com/casefold/tabular/internal/cells"
	"github.com/casefold/tabular/internal/queue"
	"github.com/casefold/tabular/internal/reviews"
	"github.com/casefold/tabular/internal/templates"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Reviews    reviews.System
	Candidates candidates.System
	Cells      cells.System
	Queue      queue.System
	Templates  templates.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	reviewsSystem := reviews.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	queueSystem := queue.New(
		db,
		runtime.Classifier,
		runtime.RebuildWorkers,
		runtime.Logger,
	)

	candidatesSystem := candidates.New(
		db,
		runtime.Classifier,
		queueSystem,
		runtime.Logger,
	)

	cellsSystem := cells.New(
		db,
		runtime.Locks,
		runtime.Logger,
	)

	templatesSystem := templates.New(
		db,
		runtime.Logger,
	)

	return &Domain{
		Reviews:    reviewsSystem,
		Candidates: candidatesSystem,
		Cells:      cellsSystem,
		Queue:      queueSystem,
		Templates:  templatesSystem,
	}
}
