package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// RosterServiceOptions groups dependencies for RosterService.
type RosterServiceOptions struct {
	Source    ports.RosterSource
	Directory ports.PrincipalDirectory
	Logger    *slog.Logger
}

// RosterService produces the administrator roster. Deployments differ in
// which remote capabilities exist, so retrieval walks an ordered candidate
// list and returns the first well-formed non-empty result. Callers never
// learn which candidate served them.
type RosterService struct {
	source    ports.RosterSource
	directory ports.PrincipalDirectory
	logger    *slog.Logger
	validate  *validator.Validate
}

// rosterCandidate is one retrieval strategy. A candidate that errors,
// returns nothing, or returns any structurally invalid row is skipped as
// a whole.
type rosterCandidate struct {
	name   string
	invoke func(ctx context.Context) ([]model.User, error)
}

// fieldExprs maps canonical User fields to JMESPath expressions evaluated
// against one row of a map-shaped payload.
type fieldExprs struct {
	id       string
	email    string
	created  string
	role     string
	verified string
	metadata string
}

// modernShape matches the combined procedure and the roster view.
var modernShape = fieldExprs{
	id:       "id",
	email:    "email",
	created:  "created_at",
	role:     "role",
	verified: "verified || email_confirmed",
	metadata: "metadata",
}

// legacyShape matches the emails-included procedure kept for older
// deployments.
var legacyShape = fieldExprs{
	id:       "user_id",
	email:    "user_email",
	created:  "signup_date",
	role:     "user_role",
	verified: "verified",
	metadata: "metadata",
}

// NewRosterService constructs a RosterService.
func NewRosterService(opts RosterServiceOptions) (*RosterService, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("roster source is required")
	}
	if opts.Directory == nil {
		return nil, fmt.Errorf("principal directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterService{
		source:    opts.Source,
		directory: opts.Directory,
		logger:    logger,
		validate:  validator.New(),
	}, nil
}

// FetchRoster returns the canonical user roster. All candidates failing or
// coming back empty is an explicit error, never a silently empty roster.
func (s *RosterService) FetchRoster(ctx context.Context) ([]model.User, error) {
	candidates := []rosterCandidate{
		{name: "combined-procedure", invoke: s.fromCombined},
		{name: "roster-view", invoke: s.fromView},
		{name: "legacy-procedure", invoke: s.fromLegacy},
		{name: "role-directory-join", invoke: s.fromDirectoryJoin},
		{name: "role-scan", invoke: s.fromRoleScan},
	}

	for _, c := range candidates {
		users, err := c.invoke(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.InfoContext(ctx, "roster candidate failed, advancing",
				"candidate", c.name, "error", err)
			continue
		}
		if len(users) == 0 {
			s.logger.InfoContext(ctx, "roster candidate returned nothing, advancing", "candidate", c.name)
			continue
		}
		return users, nil
	}

	return nil, apperrors.Unavailable("The user roster could not be retrieved from any source")
}

func (s *RosterService) fromCombined(ctx context.Context) ([]model.User, error) {
	rows, err := s.source.CombinedRoster(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizeRows(rows, modernShape)
}

func (s *RosterService) fromView(ctx context.Context) ([]model.User, error) {
	rows, err := s.source.ViewRoster(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizeRows(rows, modernShape)
}

func (s *RosterService) fromLegacy(ctx context.Context) ([]model.User, error) {
	rows, err := s.source.LegacyEmailRoster(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizeRows(rows, legacyShape)
}

// fromDirectoryJoin fetches role records and the live principal listing
// concurrently and joins them on principal id. Principals without a role
// record default to standard; role records without a live principal are
// dropped.
func (s *RosterService) fromDirectoryJoin(ctx context.Context) ([]model.User, error) {
	var (
		records    []domainauth.RoleRecord
		principals []domainauth.Principal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.source.RoleAssignments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		principals, err = s.directory.ListPrincipals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roleByID := make(map[string]domainauth.Role, len(records))
	for _, rec := range records {
		roleByID[rec.PrincipalID] = rec.Role
	}

	users := make([]model.User, 0, len(principals))
	for _, p := range principals {
		role, ok := roleByID[p.ID]
		if !ok {
			role = domainauth.RoleStandard
		}
		u := model.User{
			ID:        p.ID,
			Email:     p.Email,
			CreatedAt: p.CreatedAt,
			Role:      role,
			Verified:  true,
			Metadata:  p.Metadata,
		}
		u.Normalize()
		if err := s.validate.Struct(u); err != nil {
			return nil, fmt.Errorf("joined row for %s invalid: %w", p.ID, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// fromRoleScan is the last resort: role rows only, with placeholder emails
// synthesized from the principal id.
func (s *RosterService) fromRoleScan(ctx context.Context) ([]model.User, error) {
	records, err := s.source.RoleScan(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(records))
	for _, rec := range records {
		u := model.User{
			ID:        rec.PrincipalID,
			Email:     rec.PrincipalID + "@unknown.invalid",
			CreatedAt: rec.CreatedAt,
			Role:      rec.Role,
			Metadata:  map[string]any{"email_placeholder": true},
		}
		u.Normalize()
		if err := s.validate.Struct(u); err != nil {
			return nil, fmt.Errorf("role row for %s invalid: %w", rec.PrincipalID, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// normalizeRows converts one candidate's map-shaped payload to canonical
// users. A single malformed row disqualifies the whole payload.
func (s *RosterService) normalizeRows(rows []map[string]any, shape fieldExprs) ([]model.User, error) {
	users := make([]model.User, 0, len(rows))
	for i, row := range rows {
		u, err := normalizeRow(row, shape)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		u.Normalize()
		if err := s.validate.Struct(u); err != nil {
			return nil, fmt.Errorf("row %d invalid: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func normalizeRow(row map[string]any, shape fieldExprs) (model.User, error) {
	id, err := searchString(shape.id, row)
	if err != nil {
		return model.User{}, err
	}
	email, err := searchString(shape.email, row)
	if err != nil {
		return model.User{}, err
	}
	roleStr, err := searchString(shape.role, row)
	if err != nil {
		return model.User{}, err
	}

	u := model.User{
		ID:       id,
		Email:    email,
		Role:     domainauth.Role(roleStr),
		Metadata: searchMap(shape.metadata, row),
	}
	u.CreatedAt = searchTime(shape.created, row)
	u.Verified = searchBool(shape.verified, row)
	return u, nil
}

func searchString(expr string, row map[string]any) (string, error) {
	v, err := jmespath.Search(expr, row)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("field %q missing or not a string", expr)
	}
	return s, nil
}

func searchBool(expr string, row map[string]any) bool {
	v, err := jmespath.Search(expr, row)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func searchMap(expr string, row map[string]any) map[string]any {
	v, err := jmespath.Search(expr, row)
	if err != nil {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// searchTime tolerates the timestamp shapes the remote surfaces produce:
// native time values and RFC 3339 strings.
func searchTime(expr string, row map[string]any) time.Time {
	v, err := jmespath.Search(expr, row)
	if err != nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, parseErr := time.Parse(time.RFC3339, t); parseErr == nil {
			return parsed
		}
	}
	return time.Time{}
}
