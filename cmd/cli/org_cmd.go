package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"groupvault/internal/domain"
	"groupvault/internal/service"
)

func newOrgCmd(a *app) *cobra.Command {
	orgCmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations",
	}

	var name, slug string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if slug == "" {
				slug = service.Slugify(name)
			}
			org, err := a.store.Principals().CreateOrg(cmd.Context(), &domain.Organization{
				Name: name,
				Slug: slug,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created organization %s (%s)\n", org.Slug, org.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "organization display name")
	createCmd.Flags().StringVar(&slug, "slug", "", "organization slug (defaults to slugified name)")
	markRequired(createCmd.Flags(), "name")

	orgCmd.AddCommand(createCmd)
	return orgCmd
}
