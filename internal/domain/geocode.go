package domain

import (
	"context"
	"log/slog"
)

// minHintConfidence is the lowest provider confidence accepted as a grid hint.
// Below it the centroid is more likely the wrong neighbourhood than a coarse
// version of the right one.
const minHintConfidence = 0.5

// HintEntries assigns a GridHint to every entry that has no coordinate but
// does have locality text. Lookups are memoized per locality within the call.
// If geocoder is nil or a lookup fails, the entry is left unhinted (graceful
// degradation). The input slice is not modified.
func HintEntries(ctx context.Context, entries []CatalogEntry, geocoder Geocoder, logger *slog.Logger) []CatalogEntry {
	if geocoder == nil {
		return entries
	}

	out := make([]CatalogEntry, len(entries))
	copy(out, entries)

	type key struct{ locality, city string }
	resolved := make(map[key]*Coordinate)
	hinted, failed := 0, 0

	for i := range out {
		e := &out[i]
		if e.Location != nil || e.GridHint != nil {
			continue
		}
		if e.Locality == "" && e.City == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		k := key{Normalize(e.Locality), Normalize(e.City)}
		hint, seen := resolved[k]
		if !seen {
			result, err := geocoder.ForwardGeocode(ctx, e.Locality, e.City)
			if err != nil {
				logger.Warn("forward geocoding failed",
					"project_id", e.ID,
					"locality", e.Locality,
					"city", e.City,
					"error", err,
				)
				failed++
				resolved[k] = nil
				continue
			}
			if result.Confidence >= minHintConfidence {
				hint, _ = NewCoordinate(result.Lat, result.Lon)
			}
			resolved[k] = hint
		}
		if hint != nil {
			h := *hint
			e.GridHint = &h
			hinted++
		}
	}

	if hinted > 0 || failed > 0 {
		logger.Info("catalog grid hints applied", "hinted", hinted, "failed", failed)
	}
	return out
}
