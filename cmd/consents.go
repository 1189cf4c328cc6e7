package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/stats"
)

var (
	listPage   int
	listLimit  int
	listStatus string
	listSearch string
)

var consentsCmd = &cobra.Command{
	Use:   "consents",
	Short: "View and act on your consent requests",
}

var consentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your consents",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		params := query.ListParams{Page: listPage, Limit: listLimit, Status: listStatus, SearchTerm: listSearch}
		page, err := svc.consents.UserConsents(ctx, params)
		if err != nil {
			return err
		}

		for _, c := range page.Items {
			read := " "
			if c.IsRead == 0 {
				read = "*"
			}
			fmt.Printf("%s #%d  %-24s %-12s %s\n", read, c.ID, c.Entity, consent.DisplayStatus(c.Status), c.PurposeText)
		}
		printCounts(stats.Resolve(page.Counts, page.Items))
		printPageFooter(page.Pagination)
		return nil
	},
}

// findConsent walks the listing until the consent shows up, so the
// accept/reject guard runs against the real current status.
func findConsent(svc *services, id int64) (*consent.Consent, error) {
	ctx, cancel := cmdContext()
	defer cancel()

	params := query.ListParams{Page: 1, Limit: 50}
	for {
		page, err := svc.consents.UserConsents(ctx, params)
		if err != nil {
			return nil, err
		}
		for i := range page.Items {
			if page.Items[i].ID == id {
				return &page.Items[i], nil
			}
		}
		if !page.Pagination.HasNext {
			return nil, fmt.Errorf("consent %d not found", id)
		}
		params = params.WithPage(params.Page + 1)
	}
}

func consentAction(args []string, act func(*services, consent.Consent) error) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid consent id %q", args[0])
	}
	target, err := findConsent(svc, id)
	if err != nil {
		return err
	}
	return act(svc, *target)
}

var consentsAcceptCmd = &cobra.Command{
	Use:   "accept <id>",
	Short: "Accept a consent request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return consentAction(args, func(svc *services, c consent.Consent) error {
			ctx, cancel := cmdContext()
			defer cancel()
			return svc.consents.Accept(ctx, c)
		})
	},
}

var consentsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a consent request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return consentAction(args, func(svc *services, c consent.Consent) error {
			ctx, cancel := cmdContext()
			defer cancel()
			return svc.consents.Reject(ctx, c)
		})
	},
}

// consentsSearchCmd reads terms interactively and only queries once
// typing settles, same debounce the dashboard search box uses.
var consentsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search your consents interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}

		debouncer := query.NewDebouncer(svc.cfg.Search.DebounceInterval)
		defer debouncer.Stop()

		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				debouncer.Update(scanner.Text())
			}
			debouncer.Stop()
		}()

		for term := range debouncer.Settled() {
			ctx, cancel := cmdContext()
			params := query.ListParams{}.WithSearch(term)
			page, err := svc.consents.UserConsents(ctx, params)
			cancel()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Printf("%q matched %d consents\n", term, page.Pagination.Total)
			for _, c := range page.Items {
				fmt.Printf("  #%d %s (%s)\n", c.ID, c.Entity, consent.DisplayStatus(c.Status))
			}
		}
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "View consent notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		items, pagination, err := svc.notifications.List(ctx, query.ListParams{Page: listPage, Limit: listLimit})
		if err != nil {
			return err
		}

		for _, item := range items {
			read := " "
			if item.IsRead == 0 {
				read = "*"
			}
			action := ""
			if item.Actionable {
				action = " (awaiting your decision)"
			}
			fmt.Printf("%s #%d %s: %s%s\n", read, item.ConsentID, item.Entity, item.PurposeText, action)
		}
		unread := 0
		for _, item := range items {
			if item.IsRead == 0 && item.Actionable {
				unread++
			}
		}
		fmt.Printf("%d awaiting action\n", unread)
		if pagination != nil {
			printPageFooter(*pagination)
		}
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "mark-read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
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
		return svc.notifications.MarkRead(ctx, id, 1)
	},
}

func init() {
	for _, c := range []*cobra.Command{consentsListCmd, notificationsCmd} {
		c.Flags().IntVar(&listPage, "page", 1, "page number")
		c.Flags().IntVar(&listLimit, "limit", 10, "page size")
	}
	consentsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	consentsListCmd.Flags().StringVar(&listSearch, "search", "", "filter by search term")

	consentsCmd.AddCommand(consentsListCmd)
	consentsCmd.AddCommand(consentsAcceptCmd)
	consentsCmd.AddCommand(consentsRejectCmd)
	consentsCmd.AddCommand(consentsSearchCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
}
