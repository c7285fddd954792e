package postgres_test

import (
	"context"
	"testing"

	"github.com/venuebook/venuebook/internal/domain"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
)

func createNamedVenue(t *testing.T, store *postgresrepo.Store, name string) {
	t.Helper()

	_, err := store.Venues().Create(context.Background(), &domain.Venue{
		Name:        name,
		Type:        "conference",
		City:        "Riga",
		Capacity:    20,
		PriceCents:  5000,
		Status:      domain.VenueActive,
		OpensAtMin:  8 * 60,
		ClosesAtMin: 22 * 60,
	})
	if err != nil {
		t.Fatal(err)
	}
}

// LIKE metacharacters in a search term must match literally, not as
// wildcards.
func TestVenueRepo_ListTextQueryEscapesWildcards(t *testing.T) {
	pool := startPostgres(t)
	store := postgresrepo.NewStore(pool)
	ctx := context.Background()

	createNamedVenue(t, store, "Hall 100% Fun")
	createNamedVenue(t, store, "Hall 1000 Fun")
	createNamedVenue(t, store, "Loft_9")
	createNamedVenue(t, store, "LoftX9")

	tests := []struct {
		query string
		want  string
	}{
		{query: "100%", want: "Hall 100% Fun"},
		{query: "Loft_9", want: "Loft_9"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := store.Venues().List(ctx, domain.VenueFilter{TextQuery: tt.query}, 10, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 {
				t.Fatalf("query %q matched %d venues, want exactly 1", tt.query, len(got))
			}
			if got[0].Name != tt.want {
				t.Errorf("query %q matched %q, want %q", tt.query, got[0].Name, tt.want)
			}
		})
	}
}
