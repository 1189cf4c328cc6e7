package consent_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/core/events"
	"github.com/frahmantamala/consent-management/internal/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockAPI records every dispatched request and serves canned responses.
type mockAPI struct {
	getResponses map[string]string
	getErr       error
	putErr       error
	calls        []string
	lastPutBody  any
}

func newMockAPI() *mockAPI {
	return &mockAPI{getResponses: make(map[string]string)}
}

func (m *mockAPI) Get(ctx context.Context, path string, q url.Values, out any) error {
	m.calls = append(m.calls, "GET "+path)
	if m.getErr != nil {
		return m.getErr
	}
	body, ok := m.getResponses[path]
	if !ok {
		body = `{"items": []}`
	}
	return json.Unmarshal([]byte(body), out)
}

func (m *mockAPI) Post(ctx context.Context, path string, body, out any) error {
	m.calls = append(m.calls, "POST "+path)
	return nil
}

func (m *mockAPI) Put(ctx context.Context, path string, body, out any) error {
	m.calls = append(m.calls, "PUT "+path)
	m.lastPutBody = body
	return m.putErr
}

func (m *mockAPI) Delete(ctx context.Context, path string, body, out any) error {
	m.calls = append(m.calls, "DELETE "+path)
	return nil
}

var _ = Describe("Consent Service", func() {
	var (
		api     *mockAPI
		cache   *query.Cache
		bus     *events.Bus
		service *consent.Service
		notices []events.Notice
	)

	logger := testLogger()

	BeforeEach(func() {
		api = newMockAPI()
		cache = query.NewCache(logger)
		bus = events.NewBus(logger)
		notices = nil
		bus.Subscribe(func(n events.Notice) { notices = append(notices, n) })
		service = consent.NewService(api, cache, bus, logger)
	})

	Describe("UserConsents", func() {
		BeforeEach(func() {
			api.getResponses["/user-consents"] = `{
				"items": [{"consent_id": 1, "entity": "Horizon Bank", "status": "pending"}],
				"pagination": {"total": 1, "page": 1, "limit": 10},
				"counts": {"total": 1, "pending": 1}
			}`
		})

		It("should fetch and decode one page", func() {
			page, err := service.UserConsents(context.Background(), query.ListParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Items[0].Status).To(Equal(consent.StatusPending))
			Expect(page.Counts).To(HaveKeyWithValue("pending", 1))
		})

		It("should serve repeat calls for the same params from one backend fetch each time", func() {
			_, err := service.UserConsents(context.Background(), query.ListParams{})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UserConsents(context.Background(), query.ListParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(api.calls).To(HaveLen(2))
		})
	})

	Describe("Accept", func() {
		It("should dispatch the status mutation and invalidate consent views", func() {
			c := consent.Consent{ID: 7, Status: consent.StatusPending}

			Expect(service.Accept(context.Background(), c)).To(Succeed())
			Expect(api.calls).To(ContainElement("PUT /user-consent/7"))

			dto, ok := api.lastPutBody.(consent.UpdateConsentDTO)
			Expect(ok).To(BeTrue())
			Expect(dto.Status).To(Equal("Active"))
			Expect(dto.IsRead).NotTo(BeNil())
			Expect(*dto.IsRead).To(Equal(1))

			Expect(notices).To(HaveLen(1))
			Expect(notices[0].Kind).To(Equal(events.KindSuccess))
		})

		It("should block a non-actionable consent locally with no network call", func() {
			c := consent.Consent{ID: 7, Status: consent.StatusActive}

			err := service.Accept(context.Background(), c)
			Expect(err).To(HaveOccurred())
			Expect(internal.IsLocal(err)).To(BeTrue())
			Expect(api.calls).To(BeEmpty())
			Expect(notices).To(BeEmpty())
		})

		It("should surface a backend rejection as a failure notice", func() {
			api.putErr = internal.NewNetworkError("consent already decided", 409, nil)
			c := consent.Consent{ID: 7, Status: consent.StatusPending}

			err := service.Accept(context.Background(), c)
			Expect(err).To(HaveOccurred())
			Expect(notices).To(HaveLen(1))
			Expect(notices[0].Kind).To(Equal(events.KindFailure))
			Expect(notices[0].Message).To(Equal("consent already decided"))
		})

		It("should not invalidate the cache when the backend rejects", func() {
			_, err := service.UserConsents(context.Background(), query.ListParams{})
			Expect(err).NotTo(HaveOccurred())
			key := query.ListParams{}.Normalize().CacheKey(query.ResourceUserConsents)
			_, cached := cache.Peek(key)
			Expect(cached).To(BeTrue())

			api.putErr = internal.NewNetworkError("backend down", 502, nil)
			err = service.Accept(context.Background(), consent.Consent{ID: 7, Status: consent.StatusPending})
			Expect(err).To(HaveOccurred())

			_, cached = cache.Peek(key)
			Expect(cached).To(BeTrue())
		})
	})

	Describe("Reject", func() {
		It("should dispatch the Suspended transition", func() {
			c := consent.Consent{ID: 9, Status: consent.StatusExpired}

			Expect(service.Reject(context.Background(), c)).To(Succeed())

			dto := api.lastPutBody.(consent.UpdateConsentDTO)
			Expect(dto.Status).To(Equal("Suspended"))
		})

		It("should block locally when the consent was already decided", func() {
			err := service.Reject(context.Background(), consent.Consent{ID: 9, Status: consent.StatusSuspended})
			Expect(err).To(HaveOccurred())
			Expect(api.calls).To(BeEmpty())
		})
	})

	Describe("OverrideStatus", func() {
		It("should require explicit confirmation", func() {
			err := service.OverrideStatus(context.Background(), 3, consent.StatusRevoked, false)
			Expect(err).To(MatchError(internal.ErrConfirmationRequired))
			Expect(api.calls).To(BeEmpty())
		})

		It("should dispatch the override once confirmed", func() {
			Expect(service.OverrideStatus(context.Background(), 3, consent.StatusRevoked, true)).To(Succeed())
			Expect(api.calls).To(ContainElement("PUT /consent-requests/3/status"))
		})

		It("should not be restricted to pending consents", func() {
			Expect(service.OverrideStatus(context.Background(), 3, consent.StatusPending, true)).To(Succeed())
		})
	})
})
