package operator

import (
	"context"
	"log/slog"
	"time"

	"github.com/TenLetterx/RPi-MDP10/mission"
)

// sendPollInterval bounds how long the sender waits for outbound traffic
// before re-checking the link-dropped flag and context.
const sendPollInterval = 50 * time.Millisecond

// SenderDeps holds runtime dependencies for the sender worker.
type SenderDeps struct {
	Link    Link
	State   *mission.State
	Metrics *Metrics
	Logger  *slog.Logger
}

// Sender drains the outbound message queue onto the operator link. It polls
// with a bounded wait so a dropped link or cancelled context is noticed even
// when no traffic is flowing.
type Sender struct {
	link    Link
	state   *mission.State
	logger  *slog.Logger
	metrics *Metrics
}

// NewSender creates a sender worker.
func NewSender(deps SenderDeps) *Sender {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "operator-sender")
	}
	return &Sender{
		link:    deps.Link,
		state:   deps.State,
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// Run drains outbound messages until ctx is cancelled. While the link-dropped
// flag is raised the worker idles without consuming the queue, so messages
// survive a reconnect.
func (s *Sender) Run(ctx context.Context) error {
	for {
		if s.state.OperatorDropped.IsSet() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(sendPollInterval):
			}
			continue
		}

		msg, ok, err := s.state.Outbound.PopTimeout(ctx, sendPollInterval)
		if err != nil {
			return nil
		}
		if !ok {
			continue
		}

		if err := s.link.Send(msg); err != nil {
			s.logger.Error("operator send failed", "cat", msg.Cat, "error", err)
			if s.metrics != nil {
				s.metrics.sendErrors.Inc()
				s.metrics.linkDrops.Inc()
			}
			// Put the message back for after reconnect and raise the flag.
			s.state.Outbound.Push(msg)
			s.state.OperatorDropped.Set()
			continue
		}
		if s.metrics != nil {
			s.metrics.messagesSent.Inc()
		}
	}
}
