package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"groupvault/internal/config"
	internaldb "groupvault/internal/db"
	"groupvault/internal/db/crypto"
	"groupvault/internal/db/repository"
	"groupvault/internal/directory"
	"groupvault/internal/service"
)

// app holds the wired services shared by all subcommands. It is initialised
// once in the root command's PersistentPreRunE, after flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	store  *repository.Store

	membership *service.MembershipService
	groups     *service.GroupService
	projects   *service.ProjectService
	access     *service.AccessService
	sync       *service.SyncService
}

func (a *app) init() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	for _, w := range cfg.Warnings {
		a.logger.Warn(w)
	}

	db, err := internaldb.OpenSQLite(cfg.DBPath, "write", 0)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := internaldb.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	a.db = db

	keys, err := crypto.NewEnvelope(cfg.EncryptionKey)
	if err != nil {
		db.Close()
		return err
	}

	store := repository.NewStore(db)
	a.store = store
	keydist := service.NewKeyDistributor(keys)
	provider := directory.NewGitHubClient(
		directory.WithBaseURLs(cfg.Directory.BaseURL, cfg.Directory.GraphQLURL),
		directory.WithTimeout(cfg.Directory.Timeout),
		directory.WithRateLimit(cfg.Directory.RateRPS, cfg.Directory.RateBurst),
	)

	a.membership = service.NewMembershipService(store, keydist)
	a.groups = service.NewGroupService(store, keydist)
	a.projects = service.NewProjectService(store, keys, keydist)
	a.access = service.NewAccessService(store)
	a.sync = service.NewSyncService(store, provider, keys, a.membership, a.logger)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// Execute runs the CLI.
func Execute() int {
	a := &app{}
	rootCmd := newRootCmd(a)
	defer a.close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "groupvault",
		Short:         "Group membership and project key distribution",
		Long:          "Manages group memberships, encrypted project key shares, and external directory sync.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	rootCmd.AddCommand(
		newOrgCmd(a),
		newPrincipalCmd(a),
		newGroupCmd(a),
		newProjectCmd(a),
		newSyncCmd(a),
	)
	return rootCmd
}

func markRequired(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = cobra.MarkFlagRequired(fs, name)
	}
}
