package stats_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal/consent"
	"github.com/frahmantamala/consent-management/internal/stats"
)

func TestStats(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stats Suite")
}

func consentsWithStatuses(statuses ...consent.Status) []consent.Consent {
	out := make([]consent.Consent, len(statuses))
	for i, s := range statuses {
		out[i] = consent.Consent{ID: int64(i + 1), Status: s}
	}
	return out
}

var _ = Describe("Aggregate", func() {
	It("should bucket every known status", func() {
		counts := stats.Aggregate(consentsWithStatuses(
			consent.StatusPending,
			consent.StatusPending,
			consent.StatusActive,
			consent.StatusExpired,
		))

		Expect(counts).To(Equal(stats.StatusCounts{
			Total:   4,
			Pending: 2,
			Active:  1,
			Expired: 1,
		}))
	})

	It("should count unknown statuses in the total only", func() {
		counts := stats.Aggregate(consentsWithStatuses(consent.StatusPending, "Withdrawn"))

		Expect(counts.Total).To(Equal(2))
		Expect(counts.Pending).To(Equal(1))
		Expect(counts.Pending + counts.Active + counts.Suspended + counts.Expired).To(Equal(1))
	})

	It("should canonicalize casing before bucketing", func() {
		counts := stats.Aggregate(consentsWithStatuses("PENDING", "active"))
		Expect(counts.Pending).To(Equal(1))
		Expect(counts.Active).To(Equal(1))
	})

	It("should return zeros for an empty collection", func() {
		Expect(stats.Aggregate(nil)).To(Equal(stats.StatusCounts{}))
	})
})

var _ = Describe("FromServer", func() {
	It("should map server keys case-insensitively", func() {
		counts := stats.FromServer(map[string]int{"Total": 10, "PENDING": 4, "active": 3})
		Expect(counts).NotTo(BeNil())
		Expect(counts.Total).To(Equal(10))
		Expect(counts.Pending).To(Equal(4))
		Expect(counts.Active).To(Equal(3))
	})

	It("should ignore unknown keys", func() {
		counts := stats.FromServer(map[string]int{"withdrawn": 2})
		Expect(*counts).To(Equal(stats.StatusCounts{}))
	})

	It("should return nil for a nil map", func() {
		Expect(stats.FromServer(nil)).To(BeNil())
	})
})

var _ = Describe("Resolve", func() {
	page := consentsWithStatuses(consent.StatusPending)

	It("should prefer the server summary when present", func() {
		counts := stats.Resolve(map[string]int{"total": 40, "pending": 12}, page)
		Expect(counts.Total).To(Equal(40))
		Expect(counts.Pending).To(Equal(12))
	})

	It("should reduce the loaded page when the server sends no counts", func() {
		counts := stats.Resolve(nil, page)
		Expect(counts.Total).To(Equal(1))
		Expect(counts.Pending).To(Equal(1))
	})
})

var _ = Describe("PageStatusCounts", func() {
	type row struct{ Status string }

	It("should count statuses lowercased", func() {
		counts := stats.PageStatusCounts([]row{{"Active"}, {"active"}, {"Suspended"}}, func(r row) string { return r.Status })
		Expect(counts).To(HaveKeyWithValue("active", 2))
		Expect(counts).To(HaveKeyWithValue("suspended", 1))
	})
})
