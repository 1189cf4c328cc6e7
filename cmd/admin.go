package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/roles"
	"github.com/frahmantamala/consent-management/internal/stats"
)

var confirmFlag bool

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Platform administration",
}

var adminMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show platform headline metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		metrics, err := svc.roles.Metrics(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("users %d | fiduciaries %d | admins %d | consents %d\n",
			metrics.Users, metrics.Fiduciaries, metrics.Admins, metrics.Consents)
		return nil
	},
}

var adminRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List consent requests across all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.consents.ConsentRequests(ctx, query.ListParams{Page: listPage, Limit: listLimit, Status: listStatus})
		if err != nil {
			return err
		}
		for _, c := range page.Items {
			fmt.Printf("#%d user=%d %-24s %s\n", c.ID, c.UserID, c.Entity, c.Status)
		}
		printCounts(stats.Resolve(page.Counts, page.Items))
		printPageFooter(page.Pagination)
		return nil
	},
}

var adminOverrideCmd = &cobra.Command{
	Use:   "override <id> <status>",
	Short: "Override a consent's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid consent id %q", args[0])
		}

		ctx, cancel := cmdContext()
		defer cancel()
		return svc.consents.OverrideStatus(ctx, id, consent.Canonical(args[1]), confirmFlag)
	},
}

// requireSuperAdmin is the client-side gate: without the flag in the
// token the registry commands are not even attempted.
func requireSuperAdmin(svc *services) error {
	if !svc.session.IsSuperAdmin() {
		return internal.ErrNotSuperAdmin
	}
	return nil
}

var adminRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage the role registry (super admin only)",
}

var adminRolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users and their roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		if err := requireSuperAdmin(svc); err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.roles.List(ctx, query.ListParams{Page: listPage, Limit: listLimit})
		if err != nil {
			return err
		}

		multiRole := 0
		for _, u := range page.Items {
			extra := ""
			for _, role := range u.AdditionalRoles {
				extra += " +" + role.Role
			}
			super := ""
			if u.IsSuperAdmin {
				super = " [super]"
			}
			fmt.Printf("%-28s %-16s%s%s\n", u.Email, u.PrimaryRole, extra, super)
			if roles.HasExtraRoles(u) {
				multiRole++
			}
		}
		fmt.Printf("%d of %d users on this page hold extra roles\n", multiRole, len(page.Items))
		printPageFooter(page.Pagination)
		return nil
	},
}

var adminRolesAssignCmd = &cobra.Command{
	Use:   "assign <email> <role>",
	Short: "Assign an additional role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		if err := requireSuperAdmin(svc); err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.roles.Assign(ctx, args[0], args[1])
	},
}

var adminRolesRemoveCmd = &cobra.Command{
	Use:   "remove <email> <role>",
	Short: "Remove an additional role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		if err := requireSuperAdmin(svc); err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.roles.Remove(ctx, args[0], args[1], confirmFlag)
	},
}

var adminFeedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Review platform feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.feedback.List(ctx, query.ListParams{Page: listPage, Limit: listLimit})
		if err != nil {
			return err
		}
		for _, entry := range page.Items {
			state := "open"
			if entry.IsResolved() {
				state = "resolved"
			}
			fmt.Printf("#%d [%s] %s: %s\n", entry.ID, state, entry.Name, entry.Message)
		}
		printPageFooter(page.Pagination)
		return nil
	},
}

var adminRespondCmd = &cobra.Command{
	Use:   "respond <feedback-id> <response>",
	Short: "Respond to a feedback entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid feedback id %q", args[0])
		}

		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.feedback.List(ctx, query.ListParams{Page: 1, Limit: 50})
		if err != nil {
			return err
		}
		for _, entry := range page.Items {
			if entry.ID == id {
				return svc.feedback.Respond(ctx, entry, args[1])
			}
		}
		return fmt.Errorf("feedback %d not found", id)
	},
}

func init() {
	adminOverrideCmd.Flags().BoolVar(&confirmFlag, "yes", false, "confirm the action")
	adminRolesRemoveCmd.Flags().BoolVar(&confirmFlag, "yes", false, "confirm the action")

	adminRolesCmd.AddCommand(adminRolesListCmd)
	adminRolesCmd.AddCommand(adminRolesAssignCmd)
	adminRolesCmd.AddCommand(adminRolesRemoveCmd)

	adminCmd.AddCommand(adminMetricsCmd)
	adminCmd.AddCommand(adminRequestsCmd)
	adminCmd.AddCommand(adminOverrideCmd)
	adminCmd.AddCommand(adminRolesCmd)
	adminCmd.AddCommand(adminFeedbackCmd)
	adminCmd.AddCommand(adminRespondCmd)
}
