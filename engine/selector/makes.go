package selector

import (
	"slices"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/pkg/fn"
)

// ResolveMakes merges the three category lists, keeps consumer brands,
// dedupes and sorts. Names keep their registry casing. An empty result is
// reported as domain.ErrNoMakes.
func ResolveMakes(in domain.CategoryResults) ([]string, error) {
	makes := fn.FilterMap(in.Records(), func(r domain.RawRecord) (string, bool) {
		return r.MakeName, domain.IsAllowedMake(r.MakeName)
	})
	makes = fn.Unique(makes)
	if len(makes) == 0 {
		return nil, domain.ErrNoMakes
	}
	slices.Sort(makes)
	return makes, nil
}
