package stubserver_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/frahmantamala/consent-management/internal/stubserver"
)

var _ = Describe("Dispatcher", func() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	It("should shut down cleanly immediately after start", func() {
		_, events, err := stubserver.OpenDB(internal.DatabaseConfig{
			Driver:       "sqlite",
			Source:       ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		})
		Expect(err).NotTo(HaveOccurred())
		defer events.Close()

		// no pause between start and stop; shutdown must account for
		// the dispatch loop even before it has scheduled
		d := stubserver.NewDispatcher(internal.DispatchConfig{MaxWorkers: 2, QueueSize: 4, DeliveryTimeout: time.Second}, events, logger)

		done := make(chan struct{})
		go func() {
			d.Shutdown()
			close(done)
		}()
		Eventually(done, time.Second).Should(BeClosed())
	})
})
