package query_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal/query"
)

type testRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var _ = Describe("DecodePage", func() {
	Context("with the flat envelope", func() {
		It("should decode items, pagination and counts", func() {
			payload := []byte(`{
				"items": [{"id": 1, "name": "alpha"}, {"id": 2, "name": "beta"}],
				"pagination": {"total": 12, "page": 1, "limit": 10, "totalPages": 2, "hasNext": true, "hasPrev": false},
				"counts": {"total": 12, "pending": 5}
			}`)

			page, err := query.DecodePage[testRow](payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(2))
			Expect(page.Items[0].Name).To(Equal("alpha"))
			Expect(page.Pagination.Total).To(Equal(12))
			Expect(page.Pagination.HasNext).To(BeTrue())
			Expect(page.Counts).To(HaveKeyWithValue("pending", 5))
		})
	})

	Context("with the wrapped envelope", func() {
		It("should unwrap the data layer transparently", func() {
			payload := []byte(`{
				"data": {
					"items": [{"id": 3, "name": "gamma"}],
					"pagination": {"total": 1, "page": 1, "limit": 10}
				}
			}`)

			page, err := query.DecodePage[testRow](payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Items[0].ID).To(Equal(int64(3)))
			Expect(page.Pagination.Total).To(Equal(1))
		})
	})

	Context("with partial pagination", func() {
		It("should derive totalPages and the navigation flags", func() {
			payload := []byte(`{
				"items": [{"id": 1, "name": "alpha"}],
				"pagination": {"total": 25, "page": 2, "limit": 10}
			}`)

			page, err := query.DecodePage[testRow](payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Pagination.TotalPages).To(Equal(3))
			Expect(page.Pagination.HasNext).To(BeTrue())
			Expect(page.Pagination.HasPrev).To(BeTrue())
		})
	})

	Context("without pagination", func() {
		It("should fall back to the item count", func() {
			payload := []byte(`{"items": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]}`)

			page, err := query.DecodePage[testRow](payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Pagination.Total).To(Equal(2))
			Expect(page.Pagination.Page).To(Equal(1))
		})
	})

	Context("with an empty listing", func() {
		It("should return an empty slice, never nil", func() {
			payload := []byte(`{"items": [], "pagination": {"total": 0, "page": 1, "limit": 10}}`)

			page, err := query.DecodePage[testRow](payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Items).NotTo(BeNil())
			Expect(page.Items).To(BeEmpty())
		})
	})

	Context("with malformed payloads", func() {
		It("should reject invalid JSON", func() {
			_, err := query.DecodePage[testRow]([]byte(`{"items": [`))
			Expect(err).To(HaveOccurred())
		})

		It("should reject items of the wrong shape", func() {
			_, err := query.DecodePage[testRow]([]byte(`{"items": [{"id": "not-a-number"}]}`))
			Expect(err).To(HaveOccurred())
		})
	})
})
