package query_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal/query"
)

var _ = Describe("Debouncer", func() {
	It("should emit only the final value of a burst", func() {
		d := query.NewDebouncer(50 * time.Millisecond)
		defer d.Stop()

		d.Update("a")
		d.Update("ab")
		d.Update("abc")

		var settled string
		Eventually(d.Settled(), 500*time.Millisecond).Should(Receive(&settled))
		Expect(settled).To(Equal("abc"))
		Consistently(d.Settled(), 100*time.Millisecond).ShouldNot(Receive())
	})

	It("should restart the settle window on every keystroke", func() {
		d := query.NewDebouncer(80 * time.Millisecond)
		defer d.Stop()

		d.Update("a")
		time.Sleep(40 * time.Millisecond)
		d.Update("ab")

		// half the window has passed since the last keystroke; nothing settles yet
		Consistently(d.Settled(), 40*time.Millisecond).ShouldNot(Receive())

		var settled string
		Eventually(d.Settled(), 500*time.Millisecond).Should(Receive(&settled))
		Expect(settled).To(Equal("ab"))
	})

	It("should keep only the most recent settled value when unread", func() {
		d := query.NewDebouncer(20 * time.Millisecond)
		defer d.Stop()

		d.Update("first")
		time.Sleep(60 * time.Millisecond)
		d.Update("second")
		time.Sleep(60 * time.Millisecond)

		var settled string
		Eventually(d.Settled(), 500*time.Millisecond).Should(Receive(&settled))
		Expect(settled).To(Equal("second"))
	})

	It("should not emit after Stop", func() {
		d := query.NewDebouncer(30 * time.Millisecond)

		d.Update("abandoned")
		d.Stop()

		Consistently(d.Settled(), 100*time.Millisecond).ShouldNot(Receive())
	})

	It("should fall back to the default delay", func() {
		d := query.NewDebouncer(0)
		defer d.Stop()

		d.Update("x")
		Consistently(d.Settled(), 100*time.Millisecond).ShouldNot(Receive())
	})
})
