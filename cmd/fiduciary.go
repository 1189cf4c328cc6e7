package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/consent-management/internal/apikey"
	"github.com/frahmantamala/consent-management/internal/fiduciary"
	"github.com/frahmantamala/consent-management/internal/purpose"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/webhook"
)

var (
	fiduciaryIDFlag int64
	dpoPrimaryFlag  bool
)

var fiduciaryCmd = &cobra.Command{
	Use:   "fiduciary",
	Short: "Fiduciary registry and integrations",
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

var fiduciaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered fiduciaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.fiduciaries.List(ctx, query.ListParams{Page: listPage, Limit: listLimit, SearchTerm: listSearch, Status: listStatus})
		if err != nil {
			return err
		}
		for _, f := range page.Items {
			fmt.Printf("#%d %-24s %-12s %-10s consents=%d\n", f.ID, f.Name, f.Sector, f.Status, f.ConsentCount)
		}
		for status, n := range svc.fiduciaries.ListStats(page) {
			fmt.Printf("  %s: %d\n", status, n)
		}
		printPageFooter(page.Pagination)
		return nil
	},
}

var fiduciaryDetailsCmd = &cobra.Command{
	Use:   "details <id>",
	Short: "Show one fiduciary with its DPOs and recent activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		details, err := svc.fiduciaries.Details(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s) status=%s consents=%d\n", details.Name, details.Sector, details.Status, details.ConsentCount)
		for _, d := range details.DPOs {
			primary := ""
			if d.IsPrimary {
				primary = " [primary]"
			}
			fmt.Printf("  DPO #%d %s <%s> %s%s\n", d.ID, d.Name, d.Email, d.Phone, primary)
		}
		for _, e := range details.RecentEvents {
			fmt.Printf("  %s %s: %s\n", e.OccurredAt.Format("2006-01-02"), e.EventType, e.Description)
		}
		return nil
	},
}

var fiduciaryStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Update a fiduciary's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.fiduciaries.UpdateStatus(ctx, id, fiduciary.UpdateStatusDTO{Status: args[1]})
	},
}

var fiduciaryEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the fiduciary activity feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.fiduciaries.Events(ctx, query.ListParams{Page: listPage, Limit: listLimit, FiduciaryID: fiduciaryIDFlag})
		if err != nil {
			return err
		}
		for _, e := range page.Items {
			fmt.Printf("%s fiduciary=%d %s: %s\n", e.OccurredAt.Format("2006-01-02 15:04"), e.FiduciaryID, e.EventType, e.Description)
		}
		printPageFooter(page.Pagination)
		return nil
	},
}

// ---------- DPOs ----------

var dpoCmd = &cobra.Command{
	Use:   "dpo",
	Short: "Manage Data Protection Officers",
}

var dpoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List DPOs of a fiduciary",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		dpos, err := svc.fiduciaries.DPOs(ctx, fiduciaryIDFlag)
		if err != nil {
			return err
		}
		for _, d := range dpos {
			primary := ""
			if d.IsPrimary {
				primary = " [primary]"
			}
			fmt.Printf("#%d %s <%s> %s%s\n", d.ID, d.Name, d.Email, d.Phone, primary)
		}
		return nil
	},
}

var dpoAddCmd = &cobra.Command{
	Use:   "add <name> <email> <phone>",
	Short: "Register a DPO",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		created, err := svc.fiduciaries.CreateDPO(ctx, fiduciary.DPOInput{
			FiduciaryID: fiduciaryIDFlag,
			Name:        args[0],
			Email:       args[1],
			Phone:       args[2],
			IsPrimary:   dpoPrimaryFlag,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created DPO #%d\n", created.ID)
		return nil
	},
}

var dpoRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a DPO",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.fiduciaries.DeleteDPO(ctx, id, confirmFlag)
	},
}

// ---------- API keys ----------

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.apikeys.List(ctx, query.ListParams{Page: listPage, Limit: listLimit, FiduciaryID: fiduciaryIDFlag})
		if err != nil {
			return err
		}
		for _, k := range page.Items {
			fmt.Printf("#%d %-20s %s... %-5s %-8s used=%d\n", k.ID, k.KeyName, k.KeyPrefix, k.Environment, k.Status, k.UsageCount)
		}
		printPageFooter(page.Pagination)
		return nil
	},
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <name> <environment>",
	Short: "Create an API key (the secret is shown once)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		created, err := svc.apikeys.Create(ctx, apikey.CreateKeyDTO{FiduciaryID: fiduciaryIDFlag, KeyName: args[0], Environment: args[1]})
		if err != nil {
			return err
		}
		fmt.Printf("key #%d created\nsecret (save it now, it will not be shown again): %s\n", created.ID, created.Secret)
		return nil
	},
}

func keyMutation(args []string, mutate func(*services, apikey.APIKey) error) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := cmdContext()
	defer cancel()
	page, err := svc.apikeys.List(ctx, query.ListParams{Page: 1, Limit: 50, FiduciaryID: fiduciaryIDFlag})
	if err != nil {
		return err
	}
	for _, k := range page.Items {
		if k.ID == id {
			return mutate(svc, k)
		}
	}
	return fmt.Errorf("api key %d not found", id)
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke an active key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyMutation(args, func(svc *services, k apikey.APIKey) error {
			ctx, cancel := cmdContext()
			defer cancel()
			return svc.apikeys.Revoke(ctx, k)
		})
	},
}

var keysReactivateCmd = &cobra.Command{
	Use:   "reactivate <id>",
	Short: "Reactivate a revoked key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyMutation(args, func(svc *services, k apikey.APIKey) error {
			ctx, cancel := cmdContext()
			defer cancel()
			return svc.apikeys.Reactivate(ctx, k)
		})
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Permanently delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.apikeys.PermanentDelete(ctx, id, confirmFlag)
	},
}

// ---------- webhooks ----------

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage webhooks",
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.webhooks.List(ctx, query.ListParams{Page: listPage, Limit: listLimit, FiduciaryID: fiduciaryIDFlag})
		if err != nil {
			return err
		}
		for _, h := range page.Items {
			fmt.Printf("#%d %-8s %s (%s)\n", h.ID, h.Status, h.URL, strings.Join(h.Events, ","))
		}
		printPageFooter(page.Pagination)
		return nil
	},
}

var hooksCreateCmd = &cobra.Command{
	Use:   "create <url> <event>...",
	Short: "Register a webhook endpoint",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		created, err := svc.webhooks.Create(ctx, webhook.CreateWebhookDTO{FiduciaryID: fiduciaryIDFlag, URL: args[0], Events: args[1:]})
		if err != nil {
			return err
		}
		fmt.Printf("created webhook #%d\n", created.ID)
		return nil
	},
}

var hooksToggleCmd = &cobra.Command{
	Use:   "toggle <id> <status>",
	Short: "Set a webhook Active or Inactive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.webhooks.ToggleStatus(ctx, id, args[1])
	},
}

var hooksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.webhooks.Delete(ctx, id, confirmFlag)
	},
}

// ---------- purpose codes ----------

var purposesCmd = &cobra.Command{
	Use:   "purposes",
	Short: "Manage the purpose taxonomy",
}

var purposesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List purpose codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		page, err := svc.purposes.List(ctx, query.ListParams{Page: listPage, Limit: listLimit, SearchTerm: listSearch})
		if err != nil {
			return err
		}
		for _, p := range page.Items {
			fmt.Printf("#%d code=%d %s\n", p.ID, p.Code, p.Purpose)
		}
		printPageFooter(page.Pagination)
		return nil
	},
}

var purposesAddCmd = &cobra.Command{
	Use:   "add <code> <purpose>",
	Short: "Create a purpose code",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		code, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid code %q", args[0])
		}
		ctx, cancel := cmdContext()
		defer cancel()

		created, err := svc.purposes.Create(ctx, purpose.CreatePurposeDTO{FiduciaryID: fiduciaryIDFlag, Code: code, Purpose: strings.Join(args[1:], " ")})
		if err != nil {
			return err
		}
		fmt.Printf("created purpose #%d\n", created.ID)
		return nil
	},
}

var purposesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a purpose code permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()
		return svc.purposes.Delete(ctx, id, confirmFlag)
	},
}

func init() {
	fiduciaryCmd.PersistentFlags().Int64Var(&fiduciaryIDFlag, "fiduciary", 0, "fiduciary id scope")
	fiduciaryCmd.PersistentFlags().BoolVar(&confirmFlag, "yes", false, "confirm destructive actions")
	dpoAddCmd.Flags().BoolVar(&dpoPrimaryFlag, "primary", false, "mark as primary DPO")

	dpoCmd.AddCommand(dpoListCmd, dpoAddCmd, dpoRemoveCmd)
	keysCmd.AddCommand(keysListCmd, keysCreateCmd, keysRevokeCmd, keysReactivateCmd, keysDeleteCmd)
	hooksCmd.AddCommand(hooksListCmd, hooksCreateCmd, hooksToggleCmd, hooksDeleteCmd)
	purposesCmd.AddCommand(purposesListCmd, purposesAddCmd, purposesRemoveCmd)

	fiduciaryCmd.AddCommand(fiduciaryListCmd)
	fiduciaryCmd.AddCommand(fiduciaryDetailsCmd)
	fiduciaryCmd.AddCommand(fiduciaryStatusCmd)
	fiduciaryCmd.AddCommand(fiduciaryEventsCmd)
	fiduciaryCmd.AddCommand(dpoCmd)
	fiduciaryCmd.AddCommand(keysCmd)
	fiduciaryCmd.AddCommand(hooksCmd)
	fiduciaryCmd.AddCommand(purposesCmd)
}
