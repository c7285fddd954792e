package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/policy"
)

func TestIssueAndParse(t *testing.T) {
	mgr, err := NewManager("test-secret")
	if err != nil {
		t.Fatal(err)
	}

	actor := policy.Actor{
		ID:       uuid.New(),
		Role:     domain.RoleVenueManager,
		VenueIDs: []int64{3, 7},
	}

	token, err := mgr.Issue(actor, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := mgr.Parse(token)
	if err != nil {
		t.Fatal(err)
	}

	if parsed.ID != actor.ID || parsed.Role != actor.Role {
		t.Errorf("actor mismatch: %+v", parsed)
	}
	if len(parsed.VenueIDs) != 2 || parsed.VenueIDs[0] != 3 {
		t.Errorf("venue scope lost: %v", parsed.VenueIDs)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	issuer, _ := NewManager("secret-a")
	verifier, _ := NewManager("secret-b")

	token, err := issuer.Issue(policy.Actor{ID: uuid.New(), Role: domain.RoleUser}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	mgr, _ := NewManager("test-secret")

	token, err := mgr.Issue(policy.Actor{ID: uuid.New(), Role: domain.RoleUser}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	mgr, _ := NewManager("test-secret")

	if _, err := mgr.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
