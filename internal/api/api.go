// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/casefold/tabular/internal/config"
	"github.com/casefold/tabular/internal/infrastructure"
	"github.com/casefold/tabular/pkg/middleware"
	"github.com/casefold/tabular/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}
