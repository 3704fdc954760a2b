package alert

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthd/internal/domain"
	"healthd/internal/event"
	"healthd/internal/logger"
	"healthd/internal/metrics"
)

func publish(bus *event.Bus, aggregate float64) {
	bus.Publish(metrics.EventSnapshotPublished, metrics.SnapshotPublished{Snapshot: domain.Snapshot{
		Samples: []domain.UtilizationSample{
			{Core: domain.AggregateCore(), Percent: aggregate},
			{Core: domain.IndexedCore(0), Percent: 1},
		},
	}})
}

func TestNotifierTarget(t *testing.T) {
	assert.Equal(t, "10.0.0.1:37778", NewNotifier("10.0.0.1", 37778, 90, logger.Discard()).Target())
	assert.Equal(t, "10.0.0.1:9000", NewNotifier("10.0.0.1:9000", 37778, 90, logger.Discard()).Target())
}

func TestNotifierSendsOnUpwardCrossing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 10)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			line, _ := bufio.NewReader(conn).ReadString('\n')
			conn.Close()
			received <- line
		}
	}()

	bus := event.New(logger.Discard())
	n := NewNotifier(ln.Addr().String(), 0, 90, logger.Discard())
	n.Subscribe(bus)

	publish(bus, 50)
	publish(bus, 95.456)
	publish(bus, 99) // still above, no repeat
	publish(bus, 10)
	publish(bus, 90) // crosses again
	n.Wait()

	var lines []string
	for len(lines) < 2 {
		select {
		case l := <-received:
			lines = append(lines, l)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 alerts, got %v", lines)
		}
	}

	assert.ElementsMatch(t, []string{"ALERT CPU 95.46\n", "ALERT CPU 90.00\n"}, lines)

	select {
	case extra := <-received:
		t.Fatalf("unexpected alert %q", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifierUnreachableRemoteIsLogged(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	bus := event.New(logger.Discard())
	n := NewNotifier(addr, 0, 50, logger.Discard())
	n.Subscribe(bus)

	assert.NotPanics(t, func() {
		publish(bus, 80)
		n.Wait()
	})
}
