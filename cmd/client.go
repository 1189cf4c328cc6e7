package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/apikey"
	"github.com/frahmantamala/consent-management/internal/auth"
	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/core/events"
	"github.com/frahmantamala/consent-management/internal/feedback"
	"github.com/frahmantamala/consent-management/internal/fiduciary"
	"github.com/frahmantamala/consent-management/internal/notification"
	"github.com/frahmantamala/consent-management/internal/purpose"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/roles"
	"github.com/frahmantamala/consent-management/internal/stats"
	"github.com/frahmantamala/consent-management/internal/transport"
	"github.com/frahmantamala/consent-management/internal/user"
	"github.com/frahmantamala/consent-management/internal/webhook"
	"github.com/frahmantamala/consent-management/pkg/logger"
)

// services bundles the whole client SDK, wired once per command run.
type services struct {
	cfg     *internal.Config
	session *auth.Session
	cache   *query.Cache
	bus     *events.Bus

	consents      *consent.Service
	notifications *notification.Service
	roles         *roles.Service
	webhooks      *webhook.Service
	apikeys       *apikey.Service
	purposes      *purpose.Service
	feedback      *feedback.Service
	fiduciaries   *fiduciary.Service
	users         *user.Service
}

func newServices() (*services, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging.Environment, cfg.Logging.Level)
	log := logger.L()

	token, err := cfg.API.ResolveToken()
	if err != nil {
		return nil, err
	}
	session, err := auth.NewSession(token)
	if err != nil {
		return nil, err
	}

	api := transport.NewClient(transport.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Token:   func() string { return token },
	}, log)

	cache := query.NewCache(log)
	bus := events.NewBus(log)
	bus.Subscribe(printNotice)

	return &services{
		cfg:     cfg,
		session: session,
		cache:   cache,
		bus:     bus,

		consents:      consent.NewService(api, cache, bus, log),
		notifications: notification.NewService(api, cache, bus, log),
		roles:         roles.NewService(api, cache, bus, log),
		webhooks:      webhook.NewService(api, cache, bus, log),
		apikeys:       apikey.NewService(api, cache, bus, log),
		purposes:      purpose.NewService(api, cache, bus, log),
		feedback:      feedback.NewService(api, cache, bus, log),
		fiduciaries:   fiduciary.NewService(api, cache, bus, log),
		users:         user.NewService(api, cache, bus, log),
	}, nil
}

func printNotice(n events.Notice) {
	marker := "ok"
	if n.Kind == events.KindFailure {
		marker = "error"
	}
	fmt.Printf("[%s] %s: %s\n", marker, n.Resource, n.Message)
}

// printPageFooter renders the windowed pagination strip under a listing.
func printPageFooter(p query.Pagination) {
	if p.TotalPages <= 1 {
		return
	}
	items := query.Window(p.Page, p.TotalPages, 7)
	line := ""
	for i, item := range items {
		if i > 0 {
			line += " "
		}
		if item.Page == p.Page {
			line += "[" + item.String() + "]"
		} else {
			line += item.String()
		}
	}
	fmt.Printf("pages: %s (total %d)\n", line, p.Total)
}

func printCounts(counts stats.StatusCounts) {
	fmt.Printf("total %d | pending %d | active %d | suspended %d | expired %d\n",
		counts.Total, counts.Pending, counts.Active, counts.Suspended, counts.Expired)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return internal.WithTimeout(context.Background(), 0)
}
