package stubserver_test

import (
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal/apikey"
	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/feedback"
	"github.com/frahmantamala/consent-management/internal/query"
	"github.com/frahmantamala/consent-management/internal/roles"
	"github.com/frahmantamala/consent-management/internal/webhook"
)

var _ = Describe("Stub API", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	AfterEach(func() {
		env.Close()
	})

	Describe("authentication", func() {
		It("should issue a token for a known user", func() {
			status, body := env.request(http.MethodPost, "/auth/token", "", map[string]string{"email": "asha@mail.com"})
			Expect(status).To(Equal(http.StatusOK))

			var resp struct {
				Token string `json:"token"`
			}
			Expect(json.Unmarshal(body, &resp)).To(Succeed())

			claims, err := env.tokens.Validate(resp.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(env.asha.ID))
		})

		It("should return 404 for an unknown email", func() {
			status, _ := env.request(http.MethodPost, "/auth/token", "", map[string]string{"email": "nobody@mail.com"})
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("should reject protected routes without a token", func() {
			status, _ := env.request(http.MethodGet, "/user-consents", "", nil)
			Expect(status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("user consents", func() {
		BeforeEach(func() {
			env.addConsent(env.asha.ID, "Pending")
			env.addConsent(env.asha.ID, "Active")
			env.addConsent(env.dev.ID, "Pending")
		})

		It("should list only the caller's consents in the flat envelope", func() {
			status, body := env.request(http.MethodGet, "/user-consents", env.tokenFor(env.asha), nil)
			Expect(status).To(Equal(http.StatusOK))

			page, err := query.DecodePage[consent.Consent](body)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(2))
			Expect(page.Counts).To(HaveKeyWithValue("total", 2))
			Expect(page.Counts).To(HaveKeyWithValue("pending", 1))
			Expect(page.Counts).To(HaveKeyWithValue("active", 1))
		})

		It("should keep the counts collection-wide when a status filter is applied", func() {
			status, body := env.request(http.MethodGet, "/user-consents?status=pending", env.tokenFor(env.asha), nil)
			Expect(status).To(Equal(http.StatusOK))

			page, err := query.DecodePage[consent.Consent](body)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Counts).To(HaveKeyWithValue("total", 2))
		})
	})

	Describe("consent decisions", func() {
		It("should accept a pending consent exactly once", func() {
			record := env.addConsent(env.asha.ID, "Pending")
			token := env.tokenFor(env.asha)
			path := "/user-consent/" + itoa(record.ID)

			status, body := env.request(http.MethodPut, path, token, map[string]any{"status": "Active", "is_read": 1})
			Expect(status).To(Equal(http.StatusOK))

			var updated consent.Consent
			Expect(json.Unmarshal(body, &updated)).To(Succeed())
			Expect(updated.Status).To(Equal(consent.StatusActive))
			Expect(updated.GrantedAt).NotTo(BeNil())
			Expect(updated.IsRead).To(Equal(1))

			// the consent is decided; a second decision is refused
			status, _ = env.request(http.MethodPut, path, token, map[string]any{"status": "Suspended", "is_read": 1})
			Expect(status).To(Equal(http.StatusConflict))
		})

		It("should hide other users' consents behind a 404", func() {
			record := env.addConsent(env.dev.ID, "Pending")

			status, _ := env.request(http.MethodPut, "/user-consent/"+itoa(record.ID), env.tokenFor(env.asha), map[string]any{"status": "Active", "is_read": 1})
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("should reject an unsupported target status", func() {
			record := env.addConsent(env.asha.ID, "Pending")

			status, _ := env.request(http.MethodPut, "/user-consent/"+itoa(record.ID), env.tokenFor(env.asha), map[string]any{"status": "Revoked", "is_read": 1})
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("should acknowledge without a status change", func() {
			record := env.addConsent(env.asha.ID, "Pending")

			status, body := env.request(http.MethodPut, "/user-consent/"+itoa(record.ID), env.tokenFor(env.asha), map[string]any{"is_read": 1})
			Expect(status).To(Equal(http.StatusOK))

			var updated consent.Consent
			Expect(json.Unmarshal(body, &updated)).To(Succeed())
			Expect(updated.IsRead).To(Equal(1))
			Expect(updated.Status).To(Equal(consent.StatusPending))
		})

		It("should mark a read consent unread again", func() {
			record := env.addConsent(env.asha.ID, "Pending")
			token := env.tokenFor(env.asha)
			path := "/user-consent/" + itoa(record.ID)

			status, _ := env.request(http.MethodPut, path, token, map[string]any{"is_read": 1})
			Expect(status).To(Equal(http.StatusOK))

			status, body := env.request(http.MethodPut, path, token, map[string]any{"is_read": 0})
			Expect(status).To(Equal(http.StatusOK))

			var updated consent.Consent
			Expect(json.Unmarshal(body, &updated)).To(Succeed())
			Expect(updated.IsRead).To(Equal(0))

			stored, err := env.store.GetConsent(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsRead).To(Equal(0))
		})

		It("should reject a read flag outside 0 and 1", func() {
			record := env.addConsent(env.asha.ID, "Pending")

			status, _ := env.request(http.MethodPut, "/user-consent/"+itoa(record.ID), env.tokenFor(env.asha), map[string]any{"is_read": 2})
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("profile", func() {
		It("should show and update the caller's profile", func() {
			token := env.tokenFor(env.asha)

			status, body := env.request(http.MethodGet, "/user-profile", token, nil)
			Expect(status).To(Equal(http.StatusOK))
			var profile map[string]any
			Expect(json.Unmarshal(body, &profile)).To(Succeed())
			Expect(profile["email"]).To(Equal("asha@mail.com"))

			status, body = env.request(http.MethodPut, "/user-profile", token, map[string]string{"name": "Asha K", "phone": "9123456789"})
			Expect(status).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(body, &profile)).To(Succeed())
			Expect(profile["name"]).To(Equal("Asha K"))
			// email never changes through this endpoint
			Expect(profile["email"]).To(Equal("asha@mail.com"))
		})
	})

	Describe("api key lifecycle", func() {
		var token string

		BeforeEach(func() {
			token = env.tokenFor(env.asha)
		})

		createKey := func() apikey.CreatedKey {
			status, body := env.request(http.MethodPost, "/api-keys", token, apikey.CreateKeyDTO{
				FiduciaryID: env.fiduciary.ID,
				KeyName:     "integration",
				Environment: apikey.EnvironmentTest,
			})
			Expect(status).To(Equal(http.StatusCreated))

			var created apikey.CreatedKey
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			return created
		}

		It("should return the secret once, with the stored prefix", func() {
			created := createKey()
			Expect(created.Secret).To(HavePrefix("ck_test_"))
			Expect(created.Secret).To(HavePrefix(created.KeyPrefix))
			Expect(created.Status).To(Equal(apikey.StatusActive))

			// listings only ever expose the prefix
			status, body := env.request(http.MethodGet, "/api-keys", token, nil)
			Expect(status).To(Equal(http.StatusOK))
			page, err := query.DecodePage[apikey.APIKey](body)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(string(body)).NotTo(ContainSubstring(created.Secret))
		})

		It("should persist the owning fiduciary from the create body", func() {
			created := createKey()

			record, err := env.store.GetAPIKey(created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.FiduciaryID).To(Equal(env.fiduciary.ID))
		})

		It("should refuse a key without an owning fiduciary", func() {
			status, _ := env.request(http.MethodPost, "/api-keys", token, apikey.CreateKeyDTO{
				KeyName:     "orphan",
				Environment: apikey.EnvironmentTest,
			})
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("should walk the revoke and reactivate cycle with guards", func() {
			created := createKey()
			id := itoa(created.ID)

			status, _ := env.request(http.MethodPut, "/api-keys/"+id+"/reactivate", token, nil)
			Expect(status).To(Equal(http.StatusConflict))

			status, _ = env.request(http.MethodPut, "/api-keys/"+id+"/revoke", token, nil)
			Expect(status).To(Equal(http.StatusOK))

			status, _ = env.request(http.MethodPut, "/api-keys/"+id+"/revoke", token, nil)
			Expect(status).To(Equal(http.StatusConflict))

			status, _ = env.request(http.MethodPut, "/api-keys/"+id+"/reactivate", token, nil)
			Expect(status).To(Equal(http.StatusOK))
		})

		It("should make every mutation after a permanent delete a 404", func() {
			created := createKey()
			id := itoa(created.ID)

			status, _ := env.request(http.MethodDelete, "/api-keys/"+id+"/permanent", token, nil)
			Expect(status).To(Equal(http.StatusOK))

			status, _ = env.request(http.MethodPut, "/api-keys/"+id+"/revoke", token, nil)
			Expect(status).To(Equal(http.StatusNotFound))
			status, _ = env.request(http.MethodDelete, "/api-keys/"+id+"/permanent", token, nil)
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Describe("webhooks", func() {
		It("should register, toggle and delete an endpoint", func() {
			token := env.tokenFor(env.asha)

			status, body := env.request(http.MethodPost, "/webhooks", token, webhook.CreateWebhookDTO{
				FiduciaryID: env.fiduciary.ID,
				URL:         "https://hooks.example.com/consents",
				Events:      []string{"consent.status_changed"},
			})
			Expect(status).To(Equal(http.StatusCreated))

			var created webhook.Webhook
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.IsActive()).To(BeTrue())

			// delivery lookups must find it under the owning fiduciary
			hooks, err := env.store.ActiveWebhooks(env.fiduciary.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(hooks).To(HaveLen(1))
			Expect(hooks[0].ID).To(Equal(created.ID))

			status, body = env.request(http.MethodPut, "/webhooks/"+itoa(created.ID)+"/status", token, webhook.ToggleStatusDTO{Status: "Inactive"})
			Expect(status).To(Equal(http.StatusOK))
			var toggled webhook.Webhook
			Expect(json.Unmarshal(body, &toggled)).To(Succeed())
			Expect(toggled.IsActive()).To(BeFalse())

			status, _ = env.request(http.MethodDelete, "/webhooks/"+itoa(created.ID), token, nil)
			Expect(status).To(Equal(http.StatusOK))
			status, _ = env.request(http.MethodDelete, "/webhooks/"+itoa(created.ID), token, nil)
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("should reject a plain-http endpoint", func() {
			status, _ := env.request(http.MethodPost, "/webhooks", env.tokenFor(env.asha), webhook.CreateWebhookDTO{
				FiduciaryID: env.fiduciary.ID,
				URL:         "http://hooks.example.com/consents",
				Events:      []string{"consent.status_changed"},
			})
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("feedback", func() {
		It("should accept a public submission and resolve it exactly once", func() {
			status, body := env.request(http.MethodPost, "/feedback", "", feedback.SubmitFeedbackDTO{
				Name:     "Asha",
				Email:    "asha@mail.com",
				Category: "suggestion",
				Message:  "The consent list should remember my filters.",
			})
			Expect(status).To(Equal(http.StatusCreated))

			var created feedback.Feedback
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.IsResolved()).To(BeFalse())

			token := env.tokenFor(env.dev)
			respond := feedback.RespondDTO{FeedbackID: created.ID, Response: "Filters now persist."}

			status, _ = env.request(http.MethodPost, "/feedback-response", token, respond)
			Expect(status).To(Equal(http.StatusOK))

			status, _ = env.request(http.MethodPost, "/feedback-response", token, respond)
			Expect(status).To(Equal(http.StatusConflict))
		})

		It("should reject a short message", func() {
			status, _ := env.request(http.MethodPost, "/feedback", "", feedback.SubmitFeedbackDTO{
				Name:     "Asha",
				Email:    "asha@mail.com",
				Category: "bug",
				Message:  "too short",
			})
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("role registry", func() {
		It("should be closed to non super admins", func() {
			status, _ := env.request(http.MethodGet, "/platform-metrics", env.tokenFor(env.asha), nil)
			Expect(status).To(Equal(http.StatusForbidden))

			status, _ = env.request(http.MethodPost, "/assign-role", env.tokenFor(env.asha), roles.AssignRoleDTO{Email: "asha@mail.com", Role: roles.RoleAdmin})
			Expect(status).To(Equal(http.StatusForbidden))
		})

		It("should assign and remove an additional role", func() {
			token := env.tokenFor(env.dev)

			status, _ := env.request(http.MethodPost, "/assign-role", token, roles.AssignRoleDTO{Email: "asha@mail.com", Role: roles.RoleFiduciary})
			Expect(status).To(Equal(http.StatusOK))

			status, body := env.request(http.MethodGet, "/users-with-roles", token, nil)
			Expect(status).To(Equal(http.StatusOK))
			page, err := query.DecodePage[roles.UserWithRoles](body)
			Expect(err).NotTo(HaveOccurred())

			var asha *roles.UserWithRoles
			for i := range page.Items {
				if page.Items[i].Email == "asha@mail.com" {
					asha = &page.Items[i]
				}
			}
			Expect(asha).NotTo(BeNil())
			Expect(asha.AdditionalRoles).To(HaveLen(1))
			Expect(asha.AdditionalRoles[0].Role).To(Equal("Fiduciary"))
			Expect(asha.AdditionalRoles[0].AssignedBy).To(Equal("dev@mail.com"))

			status, _ = env.request(http.MethodDelete, "/remove-role", token, roles.RemoveRoleDTO{Email: "asha@mail.com", Role: roles.RoleFiduciary})
			Expect(status).To(Equal(http.StatusOK))

			status, _ = env.request(http.MethodDelete, "/remove-role", token, roles.RemoveRoleDTO{Email: "asha@mail.com", Role: roles.RoleFiduciary})
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("should report platform metrics to a super admin", func() {
			env.addConsent(env.asha.ID, "Pending")

			status, body := env.request(http.MethodGet, "/platform-metrics", env.tokenFor(env.dev), nil)
			Expect(status).To(Equal(http.StatusOK))

			var resp struct {
				Data struct {
					Users    int `json:"users"`
					Admins   int `json:"admins"`
					Consents int `json:"consents"`
				} `json:"data"`
			}
			Expect(json.Unmarshal(body, &resp)).To(Succeed())
			Expect(resp.Data.Users).To(Equal(2))
			Expect(resp.Data.Admins).To(Equal(1))
			Expect(resp.Data.Consents).To(Equal(1))
		})
	})

	Describe("fiduciary surface", func() {
		It("should embed the roster and activity in the details view", func() {
			token := env.tokenFor(env.dev)

			status, _ := env.request(http.MethodPost, "/dpo", token, map[string]any{
				"fiduciary_id": env.fiduciary.ID,
				"name":         "Priya",
				"email":        "priya@horizon.example",
				"phone":        "9876543210",
				"is_primary":   true,
			})
			Expect(status).To(Equal(http.StatusCreated))

			status, body := env.request(http.MethodGet, "/fiduciary/"+itoa(env.fiduciary.ID)+"/details", token, nil)
			Expect(status).To(Equal(http.StatusOK))

			var details struct {
				Name string `json:"name"`
				DPOs []struct {
					Name      string `json:"name"`
					IsPrimary bool   `json:"is_primary"`
				} `json:"dpos"`
			}
			Expect(json.Unmarshal(body, &details)).To(Succeed())
			Expect(details.Name).To(Equal("Horizon Bank"))
			Expect(details.DPOs).To(HaveLen(1))
			Expect(details.DPOs[0].IsPrimary).To(BeTrue())
		})

		It("should record a fiduciary event on a status change", func() {
			token := env.tokenFor(env.dev)

			status, _ := env.request(http.MethodPut, "/fiduciaries/"+itoa(env.fiduciary.ID)+"/status", token, map[string]string{"status": "Suspended"})
			Expect(status).To(Equal(http.StatusOK))

			status, body := env.request(http.MethodGet, "/fiduciary-events?fiduciaryId="+itoa(env.fiduciary.ID), token, nil)
			Expect(status).To(Equal(http.StatusOK))

			page, err := query.DecodePage[map[string]any](body)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).NotTo(BeEmpty())
			Expect(page.Items[0]["event_type"]).To(Equal("fiduciary.status_changed"))
		})
	})
})
