package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/fieldforge/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat float64, lng float64, displayName string, confidence float64, err error)
}

// ShouldGeocode reports whether a ticket needs an address lookup. Tickets
// without an address have nothing to resolve; tickets that already carry
// coordinates are skipped unless force is set.
func ShouldGeocode(t models.Ticket, force bool) bool {
	if strings.TrimSpace(t.Address) == "" {
		return false
	}
	if force {
		return true
	}
	return t.Lat == nil || t.Lng == nil
}
