// Package alert tells a remote host when aggregate CPU utilization climbs
// to the configured threshold.
package alert

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"healthd/internal/event"
	"healthd/internal/logger"
	"healthd/internal/metrics"
)

const dialTimeout = 5 * time.Second

// Notifier is edge triggered: it sends one "ALERT CPU <pct>" line when the
// aggregate core goes from below the threshold to at or above it, and
// stays quiet until utilization drops below again.
type Notifier struct {
	target    string
	threshold float64
	log       logger.Logger

	mu    sync.Mutex
	above bool

	wg sync.WaitGroup
}

// NewNotifier returns a notifier for remote, which may be a bare host or
// host:port. A bare host gets defaultPort.
func NewNotifier(remote string, defaultPort int, threshold float64, log logger.Logger) *Notifier {
	target := remote
	if _, _, err := net.SplitHostPort(remote); err != nil {
		target = net.JoinHostPort(remote, strconv.Itoa(defaultPort))
	}

	return &Notifier{
		target:    target,
		threshold: threshold,
		log:       log,
	}
}

func (n *Notifier) Target() string {
	return n.target
}

func (n *Notifier) Subscribe(bus *event.Bus) {
	bus.Subscribe(metrics.EventSnapshotPublished, n.onSnapshot)
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) onSnapshot(ev any) {
	published, ok := ev.(metrics.SnapshotPublished)
	if !ok {
		return
	}

	agg, ok := published.Snapshot.Aggregate()
	if !ok {
		return
	}

	if !n.crossed(agg.Percent) {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		if err := n.send(agg.Percent); err != nil {
			n.log.Warn("alert: notification failed", "target", n.target, "error", err)
			return
		}
		n.log.Info("alert: threshold reached", "target", n.target, "percent", agg.Percent, "threshold", n.threshold)
	}()
}

func (n *Notifier) crossed(percent float64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	wasAbove := n.above
	n.above = percent >= n.threshold

	return n.above && !wasAbove
}

func (n *Notifier) send(percent float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", n.target)
	if err != nil {
		return fmt.Errorf("dial %s: %w", n.target, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	if _, err := io.WriteString(conn, fmt.Sprintf("ALERT CPU %.2f\n", percent)); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}

	return nil
}
