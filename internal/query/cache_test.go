package query_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal/query"
)

func TestQuery(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Query Suite")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Cache", func() {
	var cache *query.Cache

	BeforeEach(func() {
		cache = query.NewCache(testLogger())
	})

	Describe("Fetch", func() {
		It("should store and return the fetched value", func() {
			value, err := query.Fetch(context.Background(), cache, "user-consents|page=1", func(ctx context.Context) (string, error) {
				return "fresh", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("fresh"))

			cached, ok := query.Cached[string](cache, "user-consents|page=1")
			Expect(ok).To(BeTrue())
			Expect(cached).To(Equal("fresh"))
		})

		It("should de-duplicate concurrent fetches for the same key", func() {
			var calls int32
			started := make(chan struct{})
			release := make(chan struct{})

			fn := func(ctx context.Context) (string, error) {
				atomic.AddInt32(&calls, 1)
				close(started)
				<-release
				return "shared", nil
			}

			var wg sync.WaitGroup
			results := make([]string, 2)
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[0], _ = query.Fetch(context.Background(), cache, "dedup", fn)
			}()

			// second caller attaches only once the first fetch is in flight
			<-started
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[1], _ = query.Fetch(context.Background(), cache, "dedup", func(ctx context.Context) (string, error) {
					atomic.AddInt32(&calls, 1)
					return "second", nil
				})
			}()

			close(release)
			wg.Wait()

			Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
			Expect(results[0]).To(Equal("shared"))
			Expect(results[1]).To(Equal("shared"))
		})

		It("should keep distinct keys separate", func() {
			v1, err := query.Fetch(context.Background(), cache, "a", func(ctx context.Context) (string, error) { return "one", nil })
			Expect(err).NotTo(HaveOccurred())
			v2, err := query.Fetch(context.Background(), cache, "b", func(ctx context.Context) (string, error) { return "two", nil })
			Expect(err).NotTo(HaveOccurred())

			Expect(v1).To(Equal("one"))
			Expect(v2).To(Equal("two"))
		})

		Context("when a refetch fails", func() {
			It("should return the previous value together with the error", func() {
				_, err := query.Fetch(context.Background(), cache, "stale", func(ctx context.Context) (string, error) {
					return "last-good", nil
				})
				Expect(err).NotTo(HaveOccurred())

				value, err := query.Fetch(context.Background(), cache, "stale", func(ctx context.Context) (string, error) {
					return "", errors.New("backend unavailable")
				})
				Expect(err).To(HaveOccurred())
				Expect(value).To(Equal("last-good"))
			})

			It("should return only the error when nothing was cached", func() {
				value, err := query.Fetch(context.Background(), cache, "never-fetched", func(ctx context.Context) (string, error) {
					return "", errors.New("backend unavailable")
				})
				Expect(err).To(HaveOccurred())
				Expect(value).To(BeEmpty())
			})
		})
	})

	Describe("Invalidate", func() {
		BeforeEach(func() {
			for _, key := range []string{"user-consents|page=1", "user-consents|page=2", "webhooks|page=1"} {
				k := key
				_, err := query.Fetch(context.Background(), cache, k, func(ctx context.Context) (string, error) {
					return k, nil
				})
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("should drop every filter variant of the resource", func() {
			cache.Invalidate("user-consents")

			_, ok := cache.Peek("user-consents|page=1")
			Expect(ok).To(BeFalse())
			_, ok = cache.Peek("user-consents|page=2")
			Expect(ok).To(BeFalse())
		})

		It("should leave other resources untouched", func() {
			cache.Invalidate("user-consents")

			_, ok := cache.Peek("webhooks|page=1")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("Subscribe", func() {
		It("should signal subscribers on invalidation", func() {
			ch, cancel := cache.Subscribe("user-consents")
			defer cancel()

			cache.Invalidate("user-consents")

			Eventually(ch).Should(Receive())
		})

		It("should signal subscribers when a fetch stores a value", func() {
			ch, cancel := cache.Subscribe("user-consents")
			defer cancel()

			_, err := query.Fetch(context.Background(), cache, "user-consents|page=1", func(ctx context.Context) (string, error) {
				return "v", nil
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(ch).Should(Receive())
		})

		It("should stop signalling after cancel", func() {
			ch, cancel := cache.Subscribe("user-consents")
			cancel()

			cache.Invalidate("user-consents")

			Consistently(ch).ShouldNot(Receive())
		})
	})
})

var _ = Describe("ListParams", func() {
	Describe("Normalize", func() {
		It("should fill page and limit defaults", func() {
			p := query.ListParams{}.Normalize()
			Expect(p.Page).To(Equal(1))
			Expect(p.Limit).To(Equal(query.DefaultLimit))
		})

		It("should trim the search term", func() {
			p := query.ListParams{SearchTerm: "  bank  "}.Normalize()
			Expect(p.SearchTerm).To(Equal("bank"))
		})
	})

	Describe("CacheKey", func() {
		It("should produce identical keys for equivalent params", func() {
			a := query.ListParams{Page: 1, Limit: 10, SearchTerm: "Bank"}
			b := query.ListParams{SearchTerm: " bank "}
			Expect(a.CacheKey(query.ResourceUserConsents)).To(Equal(b.CacheKey(query.ResourceUserConsents)))
		})

		It("should produce distinct keys for different filters", func() {
			a := query.ListParams{Status: "Pending"}
			b := query.ListParams{Status: "Active"}
			Expect(a.CacheKey(query.ResourceUserConsents)).NotTo(Equal(b.CacheKey(query.ResourceUserConsents)))
		})

		It("should start with the resource name", func() {
			key := query.ListParams{}.CacheKey(query.ResourceWebhooks)
			Expect(key).To(HavePrefix(query.ResourceWebhooks + "|"))
		})
	})

	Describe("WithSearch", func() {
		It("should reset to the first page", func() {
			p := query.ListParams{Page: 4}.WithSearch("bank")
			Expect(p.Page).To(Equal(1))
			Expect(p.SearchTerm).To(Equal("bank"))
		})
	})

	Describe("Values", func() {
		It("should render only the set filters", func() {
			v := query.ListParams{Page: 2, Limit: 25, Status: "Pending", FiduciaryID: 7}.Values()
			Expect(v.Get("page")).To(Equal("2"))
			Expect(v.Get("limit")).To(Equal("25"))
			Expect(v.Get("status")).To(Equal("Pending"))
			Expect(v.Get("fiduciaryId")).To(Equal("7"))
			Expect(v.Has("searchterm")).To(BeFalse())
			Expect(v.Has("dateFrom")).To(BeFalse())
		})
	})

	Describe("Key", func() {
		It("should join the resource and parts", func() {
			Expect(query.Key("fiduciary-details", "42")).To(Equal("fiduciary-details|42"))
		})

		It("should return the bare resource without parts", func() {
			Expect(query.Key("user-profile")).To(Equal("user-profile"))
		})
	})
})
