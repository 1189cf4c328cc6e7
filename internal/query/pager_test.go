package query_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal/query"
)

func render(items []query.PageItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out
}

var _ = Describe("Window", func() {
	Context("when total fits in the window", func() {
		It("should return the full range", func() {
			Expect(render(query.Window(2, 5, 7))).To(Equal([]string{"1", "2", "3", "4", "5"}))
		})

		It("should return a single page for total 1", func() {
			Expect(render(query.Window(1, 1, 7))).To(Equal([]string{"1"}))
		})
	})

	Context("when the window is at the start", func() {
		It("should elide only the tail", func() {
			Expect(render(query.Window(1, 10, 7))).To(Equal([]string{"1", "2", "...", "10"}))
		})

		It("should keep the neighborhood of page 2", func() {
			Expect(render(query.Window(2, 10, 7))).To(Equal([]string{"1", "2", "3", "...", "10"}))
		})
	})

	Context("when the window is in the middle", func() {
		It("should elide both sides", func() {
			Expect(render(query.Window(5, 10, 7))).To(Equal([]string{"1", "...", "4", "5", "6", "...", "10"}))
		})
	})

	Context("when the window is at the end", func() {
		It("should elide only the head", func() {
			Expect(render(query.Window(9, 10, 7))).To(Equal([]string{"1", "...", "8", "9", "10"}))
		})

		It("should handle the last page", func() {
			Expect(render(query.Window(10, 10, 7))).To(Equal([]string{"1", "...", "9", "10"}))
		})
	})

	Context("edge inputs", func() {
		It("should return nil for zero pages", func() {
			Expect(query.Window(1, 0, 7)).To(BeNil())
		})

		It("should fall back to the default slot count", func() {
			items := query.Window(1, 3, 0)
			Expect(render(items)).To(Equal([]string{"1", "2", "3"}))
		})
	})
})
