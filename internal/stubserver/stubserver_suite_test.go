package stubserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/auth"
	consentmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/consent"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/directory"
	"github.com/frahmantamala/consent-management/internal/stubserver"
)

func TestStubServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "StubServer Suite")
}

// testEnv runs the full stub against an in-memory database.
type testEnv struct {
	ts         *httptest.Server
	router     *chi.Mux
	store      *stubserver.Store
	tokens     *auth.TokenGenerator
	dispatcher *stubserver.Dispatcher
	events     *sqlx.DB

	asha      *directory.User
	dev       *directory.User
	fiduciary *directory.Fiduciary
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	// a single connection keeps the in-memory database alive
	db, events, err := stubserver.OpenDB(internal.DatabaseConfig{
		Driver:       "sqlite",
		Source:       ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	Expect(err).NotTo(HaveOccurred())
	Expect(stubserver.Migrate(db)).To(Succeed())

	store := stubserver.NewStore(db, events)
	dispatcher := stubserver.NewDispatcher(internal.DispatchConfig{MaxWorkers: 1, QueueSize: 8, DeliveryTimeout: time.Second}, events, logger)
	tokens := auth.NewTokenGenerator("stub-test-secret")
	server := stubserver.NewServer(store, dispatcher, tokens, logger)

	router := server.Router()
	env := &testEnv{
		ts:         httptest.NewServer(router),
		router:     router,
		store:      store,
		tokens:     tokens,
		dispatcher: dispatcher,
		events:     events,
	}
	env.seed()
	return env
}

func (e *testEnv) seed() {
	e.asha = &directory.User{Name: "Asha", Email: "asha@mail.com", Phone: "9876543210", PrimaryRole: "user"}
	Expect(e.store.SaveUser(e.asha)).To(Succeed())

	e.dev = &directory.User{Name: "Dev", Email: "dev@mail.com", PrimaryRole: "admin", IsSuperAdmin: true}
	Expect(e.store.SaveUser(e.dev)).To(Succeed())

	e.fiduciary = &directory.Fiduciary{Name: "Horizon Bank", Email: "dpo@horizon.example", Sector: "Banking", Status: "Active"}
	Expect(e.store.SaveFiduciary(e.fiduciary)).To(Succeed())
}

func (e *testEnv) addConsent(userID int64, status string) *consentmodel.Consent {
	c := &consentmodel.Consent{
		UserID:      userID,
		FiduciaryID: e.fiduciary.ID,
		Entity:      e.fiduciary.Name,
		DataItems:   "email, phone",
		PurposeCode: "101",
		PurposeText: "Account servicing",
		RequestedAt: time.Now().Add(-24 * time.Hour),
		Status:      status,
	}
	Expect(e.store.SaveConsent(c)).To(Succeed())
	return c
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (e *testEnv) tokenFor(u *directory.User) string {
	token, err := e.tokens.Generate(u.ID, u.PrimaryRole, nil, u.IsSuperAdmin)
	Expect(err).NotTo(HaveOccurred())
	return token
}

// request performs one API call and returns the status code and body.
func (e *testEnv) request(method, path, token string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.ts.URL+"/api/v1"+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, data
}

func (e *testEnv) Close() {
	e.ts.Close()
	e.dispatcher.Shutdown()
	_ = e.events.Close()
}
