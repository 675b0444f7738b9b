package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
	apperrors "github.com/tributary/tribute-ui-api/internal/errors"

	"github.com/tributary/tribute-ui-api/internal/bootstrap"
	"github.com/tributary/tribute-ui-api/internal/data"
)

const commandTimeout = 30 * time.Second

func runGrantRole(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("grant-role", flag.ContinueOnError)
	principal := fs.String("principal", "", "principal id")
	roleName := fs.String("role", "", "role to assign (standard-user, premium-client, administrator)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *principal == "" {
		return errors.New("-principal is required")
	}
	role, ok := domainauth.ParseRole(*roleName)
	if !ok {
		return fmt.Errorf("unknown role %q", *roleName)
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := contextWithTimeout(cmdCtx, commandTimeout)
	defer cancel()

	// Privileged procedure first; fall back to the direct upsert when the
	// deployment lacks it.
	procErr := data.NewProcedureRepo(db).AssignRole(ctx, *principal, role)
	if procErr == nil {
		cmdCtx.Logger.InfoContext(ctx, "role granted via procedure",
			"principal_id", *principal,
			"role", role)
		return nil
	}
	cmdCtx.Logger.WarnContext(ctx, "role-assignment procedure unavailable, writing record directly",
		"error", procErr)

	rec, err := data.NewRoleRepo(db).Upsert(ctx, *principal, role)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	cmdCtx.Logger.InfoContext(ctx, "role granted",
		"principal_id", rec.PrincipalID,
		"role", rec.Role,
		"updated_at", rec.UpdatedAt)
	return nil
}

func runRevokeRole(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("revoke-role", flag.ContinueOnError)
	principal := fs.String("principal", "", "principal id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *principal == "" {
		return errors.New("-principal is required")
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := contextWithTimeout(cmdCtx, commandTimeout)
	defer cancel()

	if err := data.NewRoleRepo(db).Delete(ctx, *principal); err != nil {
		if apperrors.IsNotFound(err) {
			cmdCtx.Logger.InfoContext(ctx, "no role record to revoke", "principal_id", *principal)
			return nil
		}
		return fmt.Errorf("revoke role: %w", err)
	}

	cmdCtx.Logger.InfoContext(ctx, "role revoked; principal falls back to standard-user",
		"principal_id", *principal)
	return nil
}
