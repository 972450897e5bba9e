package api

import (
	"net/http"

	"github.com/casefold/tabular/internal/config"
	"github.com/casefold/tabular/pkg/openapi"
	"github.com/casefold/tabular/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	routes.Register(
		mux,
		domain.Reviews.Handler().Routes(),
		domain.Candidates.Handler().Routes(),
		domain.Cells.Handler().Routes(),
		domain.Queue.Handler().Routes(),
		domain.Templates.Handler().Routes(),
	)

	spec, err := openapi.MarshalJSON(buildSpec(cfg))
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}
