package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// AdminServiceOptions groups dependencies for AdminService.
type AdminServiceOptions struct {
	Roster     *RosterService
	Roles      ports.RoleStore
	Procedures ports.Procedures
	Favorites  ports.FavoriteStore
	Notifier   ports.Notifier

	Logger *slog.Logger
}

// AdminService owns the administrator's working copy of the roster and
// applies mutations to it optimistically: the local copy changes first,
// the remote commit follows, and a failed commit restores the local copy.
type AdminService struct {
	roster    *RosterService
	roles     ports.RoleStore
	procs     ports.Procedures
	favorites ports.FavoriteStore
	notifier  ports.Notifier
	logger    *slog.Logger

	mu    sync.RWMutex
	users []model.User
}

// NewAdminService constructs an AdminService.
func NewAdminService(opts AdminServiceOptions) (*AdminService, error) {
	if opts.Roster == nil {
		return nil, errors.New("roster service is required")
	}
	if opts.Roles == nil {
		return nil, errors.New("role store is required")
	}
	if opts.Procedures == nil {
		return nil, errors.New("procedures are required")
	}
	if opts.Favorites == nil {
		return nil, errors.New("favorite store is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		roster:    opts.Roster,
		roles:     opts.Roles,
		procs:     opts.Procedures,
		favorites: opts.Favorites,
		notifier:  opts.Notifier,
		logger:    logger,
	}, nil
}

// mutation is a two-phase optimistic command. Apply changes the local
// working copy, Commit makes it durable remotely, Rollback restores the
// working copy when Commit fails.
type mutation struct {
	Apply    func()
	Commit   func(ctx context.Context) error
	Rollback func()
}

// runOptimistic applies locally, then commits. A commit failure rolls the
// local change back and surfaces the error.
func runOptimistic(ctx context.Context, m mutation) error {
	m.Apply()
	if err := m.Commit(ctx); err != nil {
		m.Rollback()
		return err
	}
	return nil
}

// LoadRoster refreshes the working copy from the remote store.
func (s *AdminService) LoadRoster(ctx context.Context) ([]model.User, error) {
	users, err := s.roster.FetchRoster(ctx)
	if err != nil {
		s.notifier.Notify(ctx, model.NoticeError, "The user roster could not be loaded.")
		return nil, err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return s.Roster(), nil
}

// Roster returns a copy of the working roster.
func (s *AdminService) Roster() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out
}

// ReassignRole changes a user's role. The privileged role-update procedure
// is preferred; when it fails the direct role record upsert is tried. Only
// both failing rolls the working copy back and notifies the administrator.
func (s *AdminService) ReassignRole(ctx context.Context, principalID string, role domainauth.Role) error {
	if !role.Recognized() {
		return apperrors.ValidationField("role", "Unknown role "+string(role))
	}

	previous, found := s.findRole(principalID)
	if !found {
		return apperrors.NotFound("User is not on the roster")
	}
	if previous == role {
		return nil
	}

	err := runOptimistic(ctx, mutation{
		Apply:    func() { s.setRole(principalID, role) },
		Rollback: func() { s.setRole(principalID, previous) },
		Commit: func(ctx context.Context) error {
			procErr := s.procs.UpdateRole(ctx, principalID, role)
			if procErr == nil {
				return nil
			}
			s.logger.WarnContext(ctx, "role-update procedure failed, trying direct write",
				"principal_id", principalID, "error", procErr)

			if _, upsertErr := s.roles.Upsert(ctx, principalID, role); upsertErr != nil {
				return fmt.Errorf("role update failed on both paths: %w", errors.Join(procErr, upsertErr))
			}
			return nil
		},
	})
	if err != nil {
		s.notifier.Notify(ctx, model.NoticeError, "The role change could not be saved and was reverted.")
		return err
	}
	return nil
}

// DeleteAccount removes a user. The steps tolerate partial failure
// unevenly: favorites cleanup failing is logged and ignored, the role
// record removal failing aborts with the roster unchanged, and the
// privileged full-removal procedure is best effort.
func (s *AdminService) DeleteAccount(ctx context.Context, principalID string) error {
	if _, found := s.findRole(principalID); !found {
		return apperrors.NotFound("User is not on the roster")
	}

	if _, err := s.favorites.DeleteByPrincipal(ctx, principalID); err != nil {
		s.logger.WarnContext(ctx, "favorites cleanup failed during account deletion",
			"principal_id", principalID, "error", err)
	}

	if err := s.roles.Delete(ctx, principalID); err != nil && !apperrors.IsNotFound(err) {
		s.notifier.Notify(ctx, model.NoticeError, "The account could not be deleted.")
		return fmt.Errorf("delete role record: %w", err)
	}

	if err := s.procs.DeleteAccount(ctx, principalID); err != nil {
		s.logger.WarnContext(ctx, "account removal procedure failed, identity record may remain",
			"principal_id", principalID, "error", err)
	}

	s.removeUser(principalID)
	s.notifier.Notify(ctx, model.NoticeSuccess, "The account was deleted.")
	return nil
}

func (s *AdminService) findRole(principalID string) (domainauth.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == principalID {
			return u.Role, true
		}
	}
	return "", false
}

func (s *AdminService) setRole(principalID string, role domainauth.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == principalID {
			s.users[i].Role = role
			return
		}
	}
}

func (s *AdminService) removeUser(principalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == principalID {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return
		}
	}
}
