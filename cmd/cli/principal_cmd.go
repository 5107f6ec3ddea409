package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groupvault/internal/domain"
)

func newPrincipalCmd(a *app) *cobra.Command {
	principalCmd := &cobra.Command{
		Use:   "principal",
		Short: "Manage principals",
	}

	var orgID, username, kind, publicKey string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a principal in an organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if kind != domain.PrincipalUser && kind != domain.PrincipalMachine {
				return domain.ErrValidation("kind must be %q or %q", domain.PrincipalUser, domain.PrincipalMachine)
			}
			var p *domain.Principal
			err := a.store.RunInTransaction(ctx, func(tx domain.Store) error {
				var err error
				p, err = tx.Principals().Create(ctx, &domain.Principal{
					Username:  username,
					Kind:      kind,
					Activated: kind == domain.PrincipalMachine || publicKey != "",
					PublicKey: publicKey,
				})
				if err != nil {
					return err
				}
				return tx.Principals().AddToOrg(ctx, orgID, p.ID)
			})
			if err != nil {
				return err
			}
			fmt.Printf("created principal %s (%s)\n", p.Username, p.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	createCmd.Flags().StringVar(&username, "username", "", "unique username")
	createCmd.Flags().StringVar(&kind, "kind", domain.PrincipalUser, "principal kind (user or machine)")
	createCmd.Flags().StringVar(&publicKey, "public-key", "", "base64 public key; a user without one starts non-activated")
	markRequired(createCmd.Flags(), "org", "username")

	var principalID, activateKey string
	activateCmd := &cobra.Command{
		Use:   "activate",
		Short: "Complete a principal's account setup and convert pending memberships",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.membership.ActivateAccount(cmd.Context(), principalID, activateKey); err != nil {
				return err
			}
			fmt.Printf("activated principal %s\n", principalID)
			return nil
		},
	}
	activateCmd.Flags().StringVar(&principalID, "principal", "", "principal ID")
	activateCmd.Flags().StringVar(&activateKey, "public-key", "", "base64 public key")
	markRequired(activateCmd.Flags(), "principal", "public-key")

	principalCmd.AddCommand(createCmd, activateCmd)
	return principalCmd
}
