// Package auth contains simple hand-written test doubles for identity and
// authorization ports. These are lightweight and suitable for unit tests
// without codegen.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	"github.com/tributary/tribute-ui-api/internal/domain/model"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityClient     = (*FakeIdentity)(nil)
	_ ports.RoleMapper         = (*StaticRoleMapper)(nil)
	_ ports.RoleStore          = (*MemoryRoleStore)(nil)
	_ ports.Notifier           = (*CaptureNotifier)(nil)
	_ ports.Procedures         = (*FakeProcedures)(nil)
	_ ports.FavoriteStore      = (*MemoryFavoriteStore)(nil)
	_ ports.RosterSource       = (*FakeRosterSource)(nil)
	_ ports.PrincipalDirectory = (*FakeDirectory)(nil)
)

// FakeIdentity simulates an identity provider with per-operation hooks.
// Unhooked operations succeed with deterministic values.
type FakeIdentity struct {
	SignInFunc           func(ctx context.Context, email, password string) (domainauth.Principal, domainauth.Token, error)
	SignUpFunc           func(ctx context.Context, in ports.SignUpInput) (domainauth.Principal, domainauth.Token, error)
	SignOutFunc          func(ctx context.Context, tok domainauth.Token) error
	CurrentPrincipalFunc func(ctx context.Context, tok domainauth.Token) (domainauth.Principal, error)
	RefreshFunc          func(ctx context.Context, tok domainauth.Token) (domainauth.Token, error)
	UpdateMetadataFunc   func(ctx context.Context, tok domainauth.Token, md map[string]any) (domainauth.Principal, error)
	PasswordResetFunc    func(ctx context.Context, email string) error

	// DefaultPrincipal is returned by unhooked operations.
	DefaultPrincipal domainauth.Principal

	mu          sync.Mutex
	signOutTok  []domainauth.Token
	resetEmails []string
	tokenSeq    int
}

// NewFakeIdentity creates a FakeIdentity with a default principal.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		DefaultPrincipal: domainauth.Principal{
			ID:        "fake-principal-1",
			Email:     "fake.person@example.com",
			CreatedAt: time.Now(),
		},
	}
}

func (f *FakeIdentity) nextToken() domainauth.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenSeq++
	return domainauth.Token{
		AccessToken:  fmt.Sprintf("access-%d", f.tokenSeq),
		RefreshToken: fmt.Sprintf("refresh-%d", f.tokenSeq),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (f *FakeIdentity) SignIn(ctx context.Context, email, password string) (domainauth.Principal, domainauth.Token, error) {
	if f.SignInFunc != nil {
		return f.SignInFunc(ctx, email, password)
	}
	return f.DefaultPrincipal, f.nextToken(), nil
}

func (f *FakeIdentity) SignUp(ctx context.Context, in ports.SignUpInput) (domainauth.Principal, domainauth.Token, error) {
	if f.SignUpFunc != nil {
		return f.SignUpFunc(ctx, in)
	}
	p := f.DefaultPrincipal
	if in.Email != "" {
		p.Email = in.Email
	}
	p.Metadata = in.Metadata
	return p, f.nextToken(), nil
}

func (f *FakeIdentity) SignOut(ctx context.Context, tok domainauth.Token) error {
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx, tok)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutTok = append(f.signOutTok, tok)
	return nil
}

// SignOutCalls returns the tokens passed to SignOut.
func (f *FakeIdentity) SignOutCalls() []domainauth.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domainauth.Token(nil), f.signOutTok...)
}

func (f *FakeIdentity) CurrentPrincipal(ctx context.Context, tok domainauth.Token) (domainauth.Principal, error) {
	if f.CurrentPrincipalFunc != nil {
		return f.CurrentPrincipalFunc(ctx, tok)
	}
	if tok.AccessToken == "" {
		return domainauth.Principal{}, apperrors.NotFound("no token")
	}
	return f.DefaultPrincipal, nil
}

func (f *FakeIdentity) Refresh(ctx context.Context, tok domainauth.Token) (domainauth.Token, error) {
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, tok)
	}
	if tok.RefreshToken == "" {
		return domainauth.Token{}, apperrors.Permission("no refresh token")
	}
	return f.nextToken(), nil
}

func (f *FakeIdentity) UpdateMetadata(ctx context.Context, tok domainauth.Token, md map[string]any) (domainauth.Principal, error) {
	if f.UpdateMetadataFunc != nil {
		return f.UpdateMetadataFunc(ctx, tok, md)
	}
	p := f.DefaultPrincipal
	p.Metadata = md
	return p, nil
}

func (f *FakeIdentity) SendPasswordReset(ctx context.Context, email string) error {
	if f.PasswordResetFunc != nil {
		return f.PasswordResetFunc(ctx, email)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetEmails = append(f.resetEmails, email)
	return nil
}

// ResetEmails returns the addresses passed to SendPasswordReset.
func (f *FakeIdentity) ResetEmails() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resetEmails...)
}

// StaticRoleMapper resolves roles from a fixed map with a standard-user
// default. Delay, when set, makes every resolution deliberately slow for
// ordering tests.
type StaticRoleMapper struct {
	Roles map[string]domainauth.Role
	Delay time.Duration

	mu    sync.Mutex
	calls []string
}

func (m *StaticRoleMapper) Resolve(ctx context.Context, principalID string) domainauth.Role {
	m.mu.Lock()
	m.calls = append(m.calls, principalID)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
		}
	}
	if role, ok := m.Roles[principalID]; ok {
		return role
	}
	return domainauth.RoleStandard
}

// ResolveCalls returns the principal ids passed to Resolve.
func (m *StaticRoleMapper) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MemoryRoleStore is an in-memory role store with per-operation error
// injection.
type MemoryRoleStore struct {
	GetErr    error
	UpsertErr error
	DeleteErr error

	mu      sync.Mutex
	records map[string]domainauth.RoleRecord
	upserts []string
}

// NewMemoryRoleStore creates an empty in-memory role store.
func NewMemoryRoleStore() *MemoryRoleStore {
	return &MemoryRoleStore{records: make(map[string]domainauth.RoleRecord)}
}

// Seed installs a role record directly.
func (m *MemoryRoleStore) Seed(principalID string, role domainauth.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedLocked(principalID, role)
}

func (m *MemoryRoleStore) seedLocked(principalID string, role domainauth.Role) {
	now := time.Now()
	m.records[principalID] = domainauth.RoleRecord{
		PrincipalID: principalID,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (m *MemoryRoleStore) Get(_ context.Context, principalID string) (domainauth.RoleRecord, error) {
	if m.GetErr != nil {
		return domainauth.RoleRecord{}, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[principalID]
	if !ok {
		return domainauth.RoleRecord{}, apperrors.NotFound("no role record")
	}
	return rec, nil
}

func (m *MemoryRoleStore) Upsert(_ context.Context, principalID string, role domainauth.Role) (domainauth.RoleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, principalID)
	if m.UpsertErr != nil {
		return domainauth.RoleRecord{}, m.UpsertErr
	}
	m.seedLocked(principalID, role)
	return m.records[principalID], nil
}

func (m *MemoryRoleStore) Delete(_ context.Context, principalID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[principalID]; !ok {
		return apperrors.NotFound("no role record")
	}
	delete(m.records, principalID)
	return nil
}

// UpsertCalls returns the principal ids passed to Upsert, including calls
// that failed via UpsertErr.
func (m *MemoryRoleStore) UpsertCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.upserts...)
}

// Has reports whether a record exists.
func (m *MemoryRoleStore) Has(principalID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[principalID]
	return ok
}

// CaptureNotifier records notices for assertions.
type CaptureNotifier struct {
	mu      sync.Mutex
	notices []model.Notice
}

func (c *CaptureNotifier) Notify(_ context.Context, level model.NoticeLevel, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, model.Notice{Level: level, Message: message})
}

// Notices returns the captured notices in order.
func (c *CaptureNotifier) Notices() []model.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Notice(nil), c.notices...)
}

// Levels returns just the captured notice levels in order.
func (c *CaptureNotifier) Levels() []model.NoticeLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.NoticeLevel, len(c.notices))
	for i, n := range c.notices {
		out[i] = n.Level
	}
	return out
}

// FakeProcedures simulates the privileged remote procedures with
// per-procedure error injection.
type FakeProcedures struct {
	UpdateRoleErr    error
	AssignRoleErr    error
	DeleteAccountErr error
	IsAdminErr       error
	Admins           map[string]bool

	mu          sync.Mutex
	updateCalls []string
	assignCalls []string
	deleteCalls []string
	adminCalls  []string
}

func (f *FakeProcedures) UpdateRole(_ context.Context, principalID string, _ domainauth.Role) error {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, principalID)
	f.mu.Unlock()
	return f.UpdateRoleErr
}

func (f *FakeProcedures) AssignRole(_ context.Context, principalID string, _ domainauth.Role) error {
	f.mu.Lock()
	f.assignCalls = append(f.assignCalls, principalID)
	f.mu.Unlock()
	return f.AssignRoleErr
}

func (f *FakeProcedures) DeleteAccount(_ context.Context, principalID string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, principalID)
	f.mu.Unlock()
	return f.DeleteAccountErr
}

func (f *FakeProcedures) IsAdministrator(_ context.Context, principalID string) (bool, error) {
	f.mu.Lock()
	f.adminCalls = append(f.adminCalls, principalID)
	f.mu.Unlock()
	if f.IsAdminErr != nil {
		return false, f.IsAdminErr
	}
	return f.Admins[principalID], nil
}

// UpdateRoleCalls returns principal ids passed to UpdateRole.
func (f *FakeProcedures) UpdateRoleCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.updateCalls...)
}

// DeleteAccountCalls returns principal ids passed to DeleteAccount.
func (f *FakeProcedures) DeleteAccountCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleteCalls...)
}

// MemoryFavoriteStore is an in-memory favorite store with error injection.
type MemoryFavoriteStore struct {
	CreateErr            error
	ListErr              error
	DeleteErr            error
	DeleteByPrincipalErr error

	mu        sync.Mutex
	favorites map[string]model.Favorite
	seq       int
}

// NewMemoryFavoriteStore creates an empty in-memory favorite store.
func NewMemoryFavoriteStore() *MemoryFavoriteStore {
	return &MemoryFavoriteStore{favorites: make(map[string]model.Favorite)}
}

func (m *MemoryFavoriteStore) Create(_ context.Context, req model.CreateFavoriteRequest) (model.Favorite, error) {
	if m.CreateErr != nil {
		return model.Favorite{}, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	fav := model.Favorite{
		ID:          fmt.Sprintf("fav-%d", m.seq),
		PrincipalID: req.PrincipalID,
		MemorialID:  req.MemorialID,
		CreatedAt:   time.Now(),
	}
	m.favorites[fav.ID] = fav
	return fav, nil
}

func (m *MemoryFavoriteStore) ListByPrincipal(_ context.Context, principalID string) ([]model.Favorite, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Favorite
	for _, fav := range m.favorites {
		if fav.PrincipalID == principalID {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (m *MemoryFavoriteStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.favorites[id]; !ok {
		return apperrors.NotFound("no favorite")
	}
	delete(m.favorites, id)
	return nil
}

func (m *MemoryFavoriteStore) DeleteByPrincipal(_ context.Context, principalID string) (int64, error) {
	if m.DeleteByPrincipalErr != nil {
		return 0, m.DeleteByPrincipalErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, fav := range m.favorites {
		if fav.PrincipalID == principalID {
			delete(m.favorites, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored favorites.
func (m *MemoryFavoriteStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.favorites)
}

// FakeRosterSource returns fixed payloads or errors per strategy.
type FakeRosterSource struct {
	CombinedRows []map[string]any
	CombinedErr  error
	ViewRows     []map[string]any
	ViewErr      error
	LegacyRows   []map[string]any
	LegacyErr    error
	Assignments  []domainauth.RoleRecord
	AssignErr    error
	ScanRecords  []domainauth.RoleRecord
	ScanErr      error
}

func (f *FakeRosterSource) CombinedRoster(context.Context) ([]map[string]any, error) {
	return f.CombinedRows, f.CombinedErr
}

func (f *FakeRosterSource) ViewRoster(context.Context) ([]map[string]any, error) {
	return f.ViewRows, f.ViewErr
}

func (f *FakeRosterSource) LegacyEmailRoster(context.Context) ([]map[string]any, error) {
	return f.LegacyRows, f.LegacyErr
}

func (f *FakeRosterSource) RoleAssignments(context.Context) ([]domainauth.RoleRecord, error) {
	return f.Assignments, f.AssignErr
}

func (f *FakeRosterSource) RoleScan(context.Context) ([]domainauth.RoleRecord, error) {
	return f.ScanRecords, f.ScanErr
}

// FakeDirectory returns a fixed principal listing.
type FakeDirectory struct {
	Principals []domainauth.Principal
	Err        error
}

func (f *FakeDirectory) ListPrincipals(context.Context) ([]domainauth.Principal, error) {
	return f.Principals, f.Err
}
