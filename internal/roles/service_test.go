package roles_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/core/events"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/roles"
)

func TestRoles(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Roles Suite")
}

type mockAPI struct {
	getResponses map[string]string
	postErr      error
	deleteErr    error
	calls        []string
	lastBody     any
}

func newMockAPI() *mockAPI {
	return &mockAPI{getResponses: make(map[string]string)}
}

func (m *mockAPI) Get(ctx context.Context, path string, q url.Values, out any) error {
	m.calls = append(m.calls, "GET "+path)
	body, ok := m.getResponses[path]
	if !ok {
		body = `{"items": []}`
	}
	return json.Unmarshal([]byte(body), out)
}

func (m *mockAPI) Post(ctx context.Context, path string, body, out any) error {
	m.calls = append(m.calls, "POST "+path)
	m.lastBody = body
	return m.postErr
}

func (m *mockAPI) Put(ctx context.Context, path string, body, out any) error {
	m.calls = append(m.calls, "PUT "+path)
	return nil
}

func (m *mockAPI) Delete(ctx context.Context, path string, body, out any) error {
	m.calls = append(m.calls, "DELETE "+path)
	m.lastBody = body
	return m.deleteErr
}

var _ = Describe("Roles Service", func() {
	var (
		api     *mockAPI
		service *roles.Service
		notices []events.Notice
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		api = newMockAPI()
		cache := query.NewCache(logger)
		bus := events.NewBus(logger)
		notices = nil
		bus.Subscribe(func(n events.Notice) { notices = append(notices, n) })
		service = roles.NewService(api, cache, bus, logger)
	})

	Describe("Assign", func() {
		It("should submit a valid assignment", func() {
			Expect(service.Assign(context.Background(), "meera@mail.com", roles.RoleFiduciary)).To(Succeed())
			Expect(api.calls).To(ContainElement("POST /assign-role"))

			dto := api.lastBody.(roles.AssignRoleDTO)
			Expect(dto.Email).To(Equal("meera@mail.com"))
			Expect(dto.Role).To(Equal("Fiduciary"))
		})

		It("should reject an unknown role locally", func() {
			err := service.Assign(context.Background(), "meera@mail.com", "Owner")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidRole))
			Expect(api.calls).To(BeEmpty())
		})

		It("should reject a missing email locally", func() {
			err := service.Assign(context.Background(), "", roles.RoleAdmin)
			Expect(err).To(HaveOccurred())
			Expect(api.calls).To(BeEmpty())
		})

		It("should submit duplicates as-is and let the backend decide", func() {
			api.postErr = internal.NewConflictError("role already assigned", internal.ErrCodeValidationFailed)

			err := service.Assign(context.Background(), "meera@mail.com", roles.RoleAdmin)
			Expect(err).To(HaveOccurred())
			Expect(api.calls).To(ContainElement("POST /assign-role"))
			Expect(notices).To(HaveLen(1))
			Expect(notices[0].Kind).To(Equal(events.KindFailure))
		})
	})

	Describe("Remove", func() {
		It("should require explicit confirmation", func() {
			err := service.Remove(context.Background(), "meera@mail.com", roles.RoleAdmin, false)
			Expect(err).To(MatchError(internal.ErrConfirmationRequired))
			Expect(api.calls).To(BeEmpty())
		})

		It("should dispatch a DELETE with a JSON body once confirmed", func() {
			Expect(service.Remove(context.Background(), "meera@mail.com", roles.RoleAdmin, true)).To(Succeed())
			Expect(api.calls).To(ContainElement("DELETE /remove-role"))

			dto := api.lastBody.(roles.RemoveRoleDTO)
			Expect(dto.Email).To(Equal("meera@mail.com"))
			Expect(dto.Role).To(Equal("Admin"))
		})

		It("should validate the role even when confirmed", func() {
			err := service.Remove(context.Background(), "meera@mail.com", "Owner", true)
			Expect(err).To(HaveOccurred())
			Expect(api.calls).To(BeEmpty())
		})
	})

	Describe("List", func() {
		It("should decode users with their role assignments", func() {
			api.getResponses["/users-with-roles"] = `{
				"data": {
					"items": [{
						"id": 4, "name": "Meera", "email": "meera@mail.com", "primary_role": "Admin",
						"additional_roles": [{"role": "Fiduciary", "assigned_by": "dev@mail.com"}],
						"is_super_admin": false, "status": "Active"
					}],
					"pagination": {"total": 1, "page": 1, "limit": 10}
				}
			}`

			page, err := service.List(context.Background(), query.ListParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(roles.HasExtraRoles(page.Items[0])).To(BeTrue())
			Expect(page.Items[0].AdditionalRoles[0].AssignedBy).To(Equal("dev@mail.com"))
		})
	})

	Describe("Metrics", func() {
		It("should decode the wrapped metrics payload", func() {
			api.getResponses["/platform-metrics"] = `{"data": {"users": 120, "fiduciaries": 8, "admins": 3, "consents": 5421}}`

			metrics, err := service.Metrics(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(metrics.Users).To(Equal(120))
			Expect(metrics.Consents).To(Equal(5421))
		})

		It("should decode a flat metrics payload", func() {
			api.getResponses["/platform-metrics"] = `{"users": 12, "fiduciaries": 2, "admins": 1, "consents": 300}`

			metrics, err := service.Metrics(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(metrics.Users).To(Equal(12))
		})
	})
})
