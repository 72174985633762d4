package catalog

import (
	"context"
	"log/slog"

	"github.com/WessleyAI/vehicle-select/engine/domain"
)

// Store persists one year's models for a make. *graph.GraphStore satisfies it.
type Store interface {
	SaveYearModels(ctx context.Context, year int, mk string, models []string, skip string) (int, error)
}

// ExportResult counts what an export wrote.
type ExportResult struct {
	Years  int `json:"years"`
	Makes  int `json:"makes"`
	Models int `json:"models"`
}

// Export writes every year/make of c into store, newest year first. The
// catch-all model is not persisted.
func Export(ctx context.Context, store Store, c Catalog, logger *slog.Logger) (ExportResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res ExportResult
	for _, year := range c.Years() {
		makes := c.Makes(year)
		for _, mk := range makes {
			n, err := store.SaveYearModels(ctx, year, mk, c.Models(year, mk), domain.CatchAllModel)
			if err != nil {
				return res, err
			}
			res.Makes++
			res.Models += n
		}
		res.Years++
		logger.Info("exported year", "year", year, "makes", len(makes))
	}
	return res, nil
}
