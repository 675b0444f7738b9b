package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"
	"github.com/tributary/tribute-ui-api/internal/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func roleRecord(principalID string, role domainauth.Role) domainauth.RoleRecord {
	return domainauth.RoleRecord{PrincipalID: principalID, Role: role}
}

func TestRoleResolver_ExistingRecordReturnedWithoutWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRoleStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "p1").Return(roleRecord("p1", domainauth.RolePremium), nil)

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RolePremium, r.Resolve(context.Background(), "p1"))
}

func TestRoleResolver_MissingRecordMaterializesExactlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRoleStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "p1").Return(domainauth.RoleRecord{}, apperrors.NotFound("no record"))
	store.EXPECT().Upsert(gomock.Any(), "p1", domainauth.RoleStandard).
		Return(roleRecord("p1", domainauth.RoleStandard), nil).
		Times(1)

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RoleStandard, r.Resolve(context.Background(), "p1"))
}

func TestRoleResolver_MaterializationFailureSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRoleStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "p1").Return(domainauth.RoleRecord{}, apperrors.NotFound("no record"))
	store.EXPECT().Upsert(gomock.Any(), "p1", domainauth.RoleStandard).
		Return(domainauth.RoleRecord{}, errors.New("write rejected"))

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RoleStandard, r.Resolve(context.Background(), "p1"))
}

func TestRoleResolver_UnrecognizedStoredRoleDefaultsWithoutWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRoleStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "p1").Return(roleRecord("p1", "super-duper-admin"), nil)

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RoleStandard, r.Resolve(context.Background(), "p1"))
}

func TestRoleResolver_PermissionDeniedSkipsMaterialization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRoleStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "p1").
		Return(domainauth.RoleRecord{}, apperrors.Permission("policy denied"))

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RoleStandard, r.Resolve(context.Background(), "p1"))
}

func TestRoleResolver_TransientLookupFailureStillMaterializes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockRoleStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "p1").
		Return(domainauth.RoleRecord{}, apperrors.Unavailable("store down"))
	store.EXPECT().Upsert(gomock.Any(), "p1", domainauth.RoleStandard).
		Return(roleRecord("p1", domainauth.RoleStandard), nil).
		Times(1)

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RoleStandard, r.Resolve(context.Background(), "p1"))
}

func TestRoleResolver_EmptyPrincipalID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No store calls expected at all.
	store := mocks.NewMockRoleStore(ctrl)

	r := NewRoleResolver(RoleResolverOptions{Store: store, Logger: testLogger()})
	assert.Equal(t, domainauth.RoleStandard, r.Resolve(context.Background(), ""))
}
