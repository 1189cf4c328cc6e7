package stubserver_test

import (
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// The published contract in api/openapi.yml must stay in step with the
// routes the stub actually mounts. Walking the live router against the
// loaded document catches drift in either direction of a route rename.
var _ = Describe("OpenAPI contract", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()

		var err error
		doc, err = loader.LoadFromFile("../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Validate(loader.Context)).To(Succeed())
	})

	It("should document every mounted route", func() {
		env := newTestEnv()
		defer env.Close()

		err := chi.Walk(env.router, func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			if strings.HasPrefix(route, "/swagger") || route == "/openapi.yml" {
				return nil
			}

			path := strings.TrimPrefix(route, "/api/v1")
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}

			item := doc.Paths.Find(path)
			Expect(item).NotTo(BeNil(), "path %s is not documented", path)
			Expect(item.GetOperation(method)).NotTo(BeNil(), "%s %s is not documented", method, path)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
	})
})
