// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the port interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	store := mocks.NewMockRoleStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "principal-1").Return(rec, nil)
package mocks

// Generate mock for the RoleStore interface from internal/ports.
// This creates MockRoleStore with Get, Upsert, and Delete.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=role_store_mock.go github.com/tributary/tribute-ui-api/internal/ports RoleStore

// Generate mock for the Procedures interface from internal/ports.
// This creates MockProcedures with UpdateRole, AssignRole, DeleteAccount,
// and IsAdministrator.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=procedures_mock.go github.com/tributary/tribute-ui-api/internal/ports Procedures
