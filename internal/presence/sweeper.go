package presence

import (
	"context"
	"log"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
)

// Feed receives relay events for connected websocket clients.
type Feed interface {
	BroadcastEvent(event models.RelayEvent)
}

// Emitter publishes participant lifecycle events.
type Emitter interface {
	EmitEvicted(ctx context.Context, name string)
}

// Sweeper periodically evicts participants whose heartbeat expired. All
// cycles run on one goroutine, so a slow cycle delays the next instead of
// overlapping it.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	window   time.Duration
	feed     Feed
	emitter  Emitter
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper builds a Sweeper. feed and emitter may be nil.
func NewSweeper(svc *Service, interval, window time.Duration, feed Feed, emitter Emitter) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		window:   window,
		feed:     feed,
		emitter:  emitter,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop halts the loop and waits for an in-flight cycle to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep runs one eviction cycle. Errors are logged and the next tick
// retries independently.
func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	start := time.Now()
	removed, err := s.svc.SweepOnce(ctx, s.window)
	observability.ObserveSweep(time.Since(start))
	if err != nil {
		log.Printf("presence sweep failed: %v", err)
	}

	for _, p := range removed {
		log.Printf("participant evicted: name=%s last_heartbeat=%s", p.Name, p.LastHeartbeat.Format(time.RFC3339))
		observability.IncEviction()
		if s.feed != nil {
			s.feed.BroadcastEvent(models.RelayEvent{Type: "participant_left", Participant: p.Name})
		}
		if s.emitter != nil {
			s.emitter.EmitEvicted(ctx, p.Name)
		}
	}

	// The registry is the source of truth for the gauge; recomputing each
	// cycle corrects any drift from failed joins or missed decrements.
	if participants, err := s.svc.Participants(ctx); err == nil {
		observability.SetParticipantsActive(len(participants))
	} else {
		log.Printf("participant count refresh failed: %v", err)
	}
}
