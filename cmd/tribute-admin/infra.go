package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/tributary/tribute-ui-api/internal/adapters/tokenstore"
	"github.com/tributary/tribute-ui-api/internal/bootstrap"
	"github.com/tributary/tribute-ui-api/internal/data"
	"github.com/tributary/tribute-ui-api/internal/ports"
	"github.com/tributary/tribute-ui-api/internal/service"

	redisadapter "github.com/tributary/tribute-ui-api/internal/adapters/redis"
)

func contextWithTimeout(cmdCtx *commandContext, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmdCtx.Ctx, d)
}

func runMigrate(cmdCtx *commandContext, _ []string) error {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := contextWithTimeout(cmdCtx, 5*time.Minute)
	defer cancel()

	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func runDumpRoster(cmdCtx *commandContext, _ []string) error {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	repo := data.NewRosterRepo(db)
	roster, err := service.NewRosterService(service.RosterServiceOptions{
		Source:    repo,
		Directory: repo,
		Logger:    cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmdCtx, commandTimeout)
	defer cancel()

	users, err := roster.FetchRoster(ctx)
	if err != nil {
		return fmt.Errorf("fetch roster: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRINCIPAL\tEMAIL\tROLE\tVERIFIED\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			u.ID, u.Email, u.Role, u.Verified, u.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runProbeTokens(cmdCtx *commandContext, _ []string) error {
	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var store ports.TokenStore
	if key := cmdCtx.Config.Session.RedisKey; key != "" {
		store = redisadapter.NewTokenStoreWithKey(redisClient, key)
	} else {
		store = redisadapter.NewTokenStore(redisClient)
	}

	fanout, err := tokenstore.NewFanout(tokenstore.FanoutOptions{
		Stores: []ports.TokenStore{store},
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmdCtx, commandTimeout)
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SURFACE\tHELD\tLIVE\tSUBJECT\tERROR")
	for _, st := range fanout.Probe(ctx) {
		fmt.Fprintf(w, "%s\t%t\t%t\t%s\t%s\n",
			st.Surface, st.Held, st.Live, st.Subject, st.Error)
	}
	return w.Flush()
}
