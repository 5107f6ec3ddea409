package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"groupvault/internal/domain"
)

func newSyncCmd(a *app) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage directory sync configuration and run reconciliation",
	}

	var cfgOrgID, providerOrg, accessToken string
	var active bool
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update an organization's directory sync configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var cfg *domain.DirectorySyncConfig
			_, err := a.sync.GetConfig(ctx, cfgOrgID)
			switch {
			case err == nil:
				cfg, err = a.sync.UpdateConfig(ctx, cfgOrgID, providerOrg, accessToken, active)
			case errors.As(err, new(*domain.NotFoundError)):
				cfg, err = a.sync.CreateConfig(ctx, cfgOrgID, providerOrg, accessToken, active)
			}
			if err != nil {
				return err
			}
			fmt.Printf("sync config for org %s: provider org %s, active=%v\n", cfg.OrgID, cfg.ProviderOrg, cfg.Active)
			return nil
		},
	}
	setCmd.Flags().StringVar(&cfgOrgID, "org", "", "organization ID")
	setCmd.Flags().StringVar(&providerOrg, "provider-org", "", "organization name at the directory provider")
	setCmd.Flags().StringVar(&accessToken, "token", "", "provider access token (stored encrypted)")
	setCmd.Flags().BoolVar(&active, "active", true, "enable sync")
	markRequired(setCmd.Flags(), "org")

	var getOrgID string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show an organization's directory sync configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.sync.GetConfig(cmd.Context(), getOrgID)
			if err != nil {
				return err
			}
			fmt.Printf("provider org: %s\nactive: %v\ntoken stored: %v\n",
				cfg.ProviderOrg, cfg.Active, cfg.EncryptedAccessToken != "")
			return nil
		},
	}
	getCmd.Flags().StringVar(&getOrgID, "org", "", "organization ID")
	markRequired(getCmd.Flags(), "org")

	var deleteOrgID string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove an organization's directory sync configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sync.DeleteConfig(cmd.Context(), deleteOrgID); err != nil {
				return err
			}
			fmt.Printf("deleted sync config for org %s\n", deleteOrgID)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&deleteOrgID, "org", "", "organization ID")
	markRequired(deleteCmd.Flags(), "org")

	var runOrgID, runPrincipalID, runToken string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a principal's group memberships against the directory provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sync.SyncPrincipal(cmd.Context(), runOrgID, runPrincipalID, runToken); err != nil {
				return err
			}
			fmt.Printf("synced principal %s\n", runPrincipalID)
			return nil
		},
	}
	runCmd.Flags().StringVar(&runOrgID, "org", "", "organization ID")
	runCmd.Flags().StringVar(&runPrincipalID, "principal", "", "principal ID")
	runCmd.Flags().StringVar(&runToken, "token", "", "principal's own provider token (optional)")
	markRequired(runCmd.Flags(), "org", "principal")

	syncCmd.AddCommand(setCmd, getCmd, deleteCmd, runCmd)
	return syncCmd
}
