package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGroupCmd(a *app) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups and their project links",
	}

	var orgID, name, slug string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.groups.Create(cmd.Context(), orgID, name, slug)
			if err != nil {
				return err
			}
			fmt.Printf("created group %s (%s)\n", g.Slug, g.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	createCmd.Flags().StringVar(&name, "name", "", "group display name")
	createCmd.Flags().StringVar(&slug, "slug", "", "group slug (defaults to slugified name)")
	markRequired(createCmd.Flags(), "org", "name")

	var deleteGroupID string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a group (refused while linked to any project)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.groups.Delete(cmd.Context(), deleteGroupID); err != nil {
				return err
			}
			fmt.Printf("deleted group %s\n", deleteGroupID)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&deleteGroupID, "group", "", "group ID")
	markRequired(deleteCmd.Flags(), "group")

	var linkGroupID, linkProjectID string
	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Grant a group access to a project and issue shares to its members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.groups.LinkGroupToProject(cmd.Context(), linkGroupID, linkProjectID); err != nil {
				return err
			}
			fmt.Printf("linked group %s to project %s\n", linkGroupID, linkProjectID)
			return nil
		},
	}
	linkCmd.Flags().StringVar(&linkGroupID, "group", "", "group ID")
	linkCmd.Flags().StringVar(&linkProjectID, "project", "", "project ID")
	markRequired(linkCmd.Flags(), "group", "project")

	var unlinkGroupID, unlinkProjectID string
	unlinkCmd := &cobra.Command{
		Use:   "unlink",
		Short: "Sever a group's project grant, revoking shares with no remaining path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.access.UnlinkGroupFromProject(cmd.Context(), unlinkGroupID, unlinkProjectID); err != nil {
				return err
			}
			fmt.Printf("unlinked group %s from project %s\n", unlinkGroupID, unlinkProjectID)
			return nil
		},
	}
	unlinkCmd.Flags().StringVar(&unlinkGroupID, "group", "", "group ID")
	unlinkCmd.Flags().StringVar(&unlinkProjectID, "project", "", "project ID")
	markRequired(unlinkCmd.Flags(), "group", "project")

	var addGroupID string
	var addPrincipals []string
	addMemberCmd := &cobra.Command{
		Use:   "add-member",
		Short: "Add principals to a group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.membership.AddPrincipals(cmd.Context(), addGroupID, addPrincipals); err != nil {
				return err
			}
			fmt.Printf("added %d principal(s) to group %s\n", len(addPrincipals), addGroupID)
			return nil
		},
	}
	addMemberCmd.Flags().StringVar(&addGroupID, "group", "", "group ID")
	addMemberCmd.Flags().StringSliceVar(&addPrincipals, "principal", nil, "principal ID (repeatable)")
	markRequired(addMemberCmd.Flags(), "group", "principal")

	var removeGroupID string
	var removePrincipals []string
	removeMemberCmd := &cobra.Command{
		Use:   "remove-member",
		Short: "Remove principals from a group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.membership.RemovePrincipals(cmd.Context(), removeGroupID, removePrincipals); err != nil {
				return err
			}
			fmt.Printf("removed %d principal(s) from group %s\n", len(removePrincipals), removeGroupID)
			return nil
		},
	}
	removeMemberCmd.Flags().StringVar(&removeGroupID, "group", "", "group ID")
	removeMemberCmd.Flags().StringSliceVar(&removePrincipals, "principal", nil, "principal ID (repeatable)")
	markRequired(removeMemberCmd.Flags(), "group", "principal")

	groupCmd.AddCommand(createCmd, deleteCmd, linkCmd, unlinkCmd, addMemberCmd, removeMemberCmd)
	return groupCmd
}
