package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectCmd(a *app) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and direct project membership",
	}

	var orgID, name string
	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create a project with its bot key pair and escrow key share",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.projects.Bootstrap(cmd.Context(), orgID, name)
			if err != nil {
				return err
			}
			fmt.Printf("bootstrapped project %s (%s), escrow principal %s\n", p.Name, p.ID, p.EscrowPrincipalID)
			return nil
		},
	}
	bootstrapCmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	bootstrapCmd.Flags().StringVar(&name, "name", "", "project name")
	markRequired(bootstrapCmd.Flags(), "org", "name")

	var addProjectID, addPrincipalID string
	addMemberCmd := &cobra.Command{
		Use:   "add-member",
		Short: "Give a principal a direct project membership and a key share",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.projects.AddDirectMember(cmd.Context(), addProjectID, addPrincipalID); err != nil {
				return err
			}
			fmt.Printf("added principal %s to project %s\n", addPrincipalID, addProjectID)
			return nil
		},
	}
	addMemberCmd.Flags().StringVar(&addProjectID, "project", "", "project ID")
	addMemberCmd.Flags().StringVar(&addPrincipalID, "principal", "", "principal ID")
	markRequired(addMemberCmd.Flags(), "project", "principal")

	var removeProjectID, removePrincipalID string
	removeMemberCmd := &cobra.Command{
		Use:   "remove-member",
		Short: "Remove a principal's direct project membership",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.projects.RemoveDirectMember(cmd.Context(), removeProjectID, removePrincipalID); err != nil {
				return err
			}
			fmt.Printf("removed principal %s from project %s\n", removePrincipalID, removeProjectID)
			return nil
		},
	}
	removeMemberCmd.Flags().StringVar(&removeProjectID, "project", "", "project ID")
	removeMemberCmd.Flags().StringVar(&removePrincipalID, "principal", "", "principal ID")
	markRequired(removeMemberCmd.Flags(), "project", "principal")

	projectCmd.AddCommand(bootstrapCmd, addMemberCmd, removeMemberCmd)
	return projectCmd
}
