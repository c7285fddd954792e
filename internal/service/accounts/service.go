package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/policy"
	"github.com/venuebook/venuebook/internal/repository"
	postgresrepo "github.com/venuebook/venuebook/internal/repository/postgres"
	"github.com/venuebook/venuebook/internal/uow"
)

// Service manages profiles and invitations. Every state change is audited
// in the same transaction; a failed audit write fails the change.
type Service struct {
	store *postgresrepo.Store
	uow   *uow.UoW
}

func New(store *postgresrepo.Store) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
	}
}

// GetProfile returns a profile. Actors may read their own; reading others
// needs users.manage.
func (s *Service) GetProfile(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
) (*domain.Profile, error) {
	const op = "service.accounts.GetProfile"

	if actor.ID != id && !policy.Can(actor, policy.UsersManage, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	p, err := s.store.Profiles().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}

func (s *Service) ListProfiles(
	ctx context.Context,
	actor policy.Actor,
	limit, offset int,
) ([]domain.Profile, error) {
	const op = "service.accounts.ListProfiles"

	if !policy.Can(actor, policy.UsersManage, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	out, err := s.store.Profiles().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// SetRole escalates or demotes a profile. Only holders of users.manage may
// change roles; the change is audited.
func (s *Service) SetRole(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	role domain.Role,
) (*domain.Profile, error) {
	const op = "service.accounts.SetRole"

	if !policy.Can(actor, policy.UsersManage, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	if !validRole(role) {
		return nil, fmt.Errorf("%s:%w", op, ErrValidation)
	}

	var updated *domain.Profile

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		p, err := s.store.Profiles().With(tx).SetRole(ctx, id, role)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrProfileNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		updated = p

		return s.audit(ctx, tx, actor.ID, "user.set_role", map[string]any{
			"user_id": id,
			"role":    role,
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SetActive suspends or reactivates a profile.
func (s *Service) SetActive(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	active bool,
) (*domain.Profile, error) {
	const op = "service.accounts.SetActive"

	if !policy.Can(actor, policy.UsersManage, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	var updated *domain.Profile

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		p, err := s.store.Profiles().With(tx).SetActive(ctx, id, active)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrProfileNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		updated = p

		action := "user.suspend"
		if active {
			action = "user.activate"
		}

		return s.audit(ctx, tx, actor.ID, action, map[string]any{
			"user_id": id,
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Invite records a pending invitation and stages a user.invited event for
// the notification service. A failed write surfaces as an error; it is
// never reported as success.
//
// Returns:
//   - error: accounts.ErrInvitationExists if a pending invitation for the
//     email already exists.
func (s *Service) Invite(
	ctx context.Context,
	actor policy.Actor,
	email, fullName string,
	role domain.Role,
) (*domain.Invitation, error) {
	const op = "service.accounts.Invite"

	if !policy.Can(actor, policy.UsersInvite, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || !validRole(role) {
		return nil, fmt.Errorf("%s:%w", op, ErrValidation)
	}

	inv := &domain.Invitation{
		Email:     email,
		FullName:  fullName,
		Role:      role,
		InvitedBy: actor.ID,
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Invitations().With(tx).Insert(ctx, inv); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrInvitationExists)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.audit(ctx, tx, actor.ID, "user.invite", map[string]any{
			"email": email,
			"role":  role,
		}); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"invitation_id": inv.ID,
			"email":         email,
			"full_name":     fullName,
			"role":          role,
		})
		if err != nil {
			return err
		}

		return s.store.Outbox().With(tx).Insert(ctx, "user.invited", payload)
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *Service) ListInvitations(
	ctx context.Context,
	actor policy.Actor,
	limit, offset int,
) ([]domain.Invitation, error) {
	const op = "service.accounts.ListInvitations"

	if !policy.Can(actor, policy.UsersInvite, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	out, err := s.store.Invitations().ListPending(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) CancelInvitation(
	ctx context.Context,
	actor policy.Actor,
	id int64,
) error {
	const op = "service.accounts.CancelInvitation"

	if !policy.Can(actor, policy.UsersInvite, policy.Target{}) {
		return fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		err := s.store.Invitations().With(tx).SetStatus(ctx, id, domain.InvitationCancelled)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrInvitationNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		return s.audit(ctx, tx, actor.ID, "user.invite_cancel", map[string]any{
			"invitation_id": id,
		})
	})
}

// AcceptInvitation creates the invited profile for the caller and closes
// the invitation, both in one transaction. The caller's identity comes from
// the token subject; the role comes from the invitation, never the request.
func (s *Service) AcceptInvitation(
	ctx context.Context,
	userID uuid.UUID,
	invitationID int64,
) (*domain.Profile, error) {
	const op = "service.accounts.AcceptInvitation"

	var created *domain.Profile

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		inv, err := s.store.Invitations().With(tx).Get(ctx, invitationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrInvitationNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if inv.Status != domain.InvitationPending {
			return fmt.Errorf("%s:%w", op, ErrInvitationClosed)
		}

		p := &domain.Profile{
			ID:       userID,
			Email:    inv.Email,
			FullName: inv.FullName,
			Role:     inv.Role,
			Active:   true,
		}

		if err := s.store.Profiles().With(tx).Create(ctx, p); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrProfileExists)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		err = s.store.Invitations().With(tx).SetStatus(ctx, invitationID, domain.InvitationAccepted)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		created = p

		return s.audit(ctx, tx, userID, "user.invite_accept", map[string]any{
			"invitation_id": invitationID,
			"role":          inv.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// DeleteProfile removes a profile. Bookings and audit rows reference the
// user id and are kept; this drops only the account record.
func (s *Service) DeleteProfile(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
) error {
	const op = "service.accounts.DeleteProfile"

	if !policy.Can(actor, policy.UsersManage, policy.Target{}) {
		return fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Profiles().With(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrProfileNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		return s.audit(ctx, tx, actor.ID, "user.delete", map[string]any{
			"user_id": id,
		})
	})
}

// ListActivity exposes the audit trail to super admins.
func (s *Service) ListActivity(
	ctx context.Context,
	actor policy.Actor,
	limit, offset int,
) ([]domain.ActivityLogEntry, error) {
	const op = "service.accounts.ListActivity"

	if !policy.Can(actor, policy.AuditView, policy.Target{}) {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	out, err := s.store.Audit().ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func validRole(r domain.Role) bool {
	switch r {
	case domain.RoleUser, domain.RoleVenueManager, domain.RoleCityOwner, domain.RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func (s *Service) audit(
	ctx context.Context,
	tx postgresrepo.DB,
	userID uuid.UUID,
	action string,
	details map[string]any,
) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}

	return s.store.Audit().With(tx).Record(ctx, userID, action, payload)
}
