package catalog

import (
	"testing"

	"github.com/venuebook/venuebook/internal/domain"
)

func TestNormalizeFilter_DefaultsToActive(t *testing.T) {
	f := normalizeFilter(domain.VenueFilter{City: "Riga"})
	if f.Status != domain.VenueActive {
		t.Errorf("unset status should default to active, got %q", f.Status)
	}
	if f.City != "Riga" {
		t.Errorf("other filter fields must be preserved, got %q", f.City)
	}
}

func TestNormalizeFilter_ExplicitStatusKept(t *testing.T) {
	for _, status := range []domain.VenueStatus{domain.VenueInactive, domain.VenueMaintenance} {
		f := normalizeFilter(domain.VenueFilter{Status: status})
		if f.Status != status {
			t.Errorf("explicit status %q must not be overridden, got %q", status, f.Status)
		}
	}
}

func TestFilterHash_DistinguishesDefaultedStatus(t *testing.T) {
	// The cache key must reflect the defaulted filter, or an explicit
	// status=active request and an all-statuses request would collide.
	defaulted := filterHash(normalizeFilter(domain.VenueFilter{}), 10, 0)
	explicit := filterHash(domain.VenueFilter{Status: domain.VenueActive}, 10, 0)
	if defaulted != explicit {
		t.Error("defaulted and explicit active filters should share a cache key")
	}

	inactive := filterHash(domain.VenueFilter{Status: domain.VenueInactive}, 10, 0)
	if inactive == explicit {
		t.Error("different statuses must not share a cache key")
	}
}
