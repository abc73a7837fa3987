package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
)

const defaultPublishTimeout = 15 * time.Second

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

// PubSubNotifier publishes action events to the configured Pub/Sub topic.
// Publishing is fire and forget: a failed publish is logged and dropped, it
// never affects the committed transition.
type PubSubNotifier struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
}

// NewPubSubNotifier wraps the action-events publisher. A nil publisher yields
// a notifier that drops every event, which keeps local setups working without
// Pub/Sub credentials.
func NewPubSubNotifier(pub *gcppubsub.Publisher, logg *logger.Logger) *PubSubNotifier {
	n := &PubSubNotifier{logg: logg, timeout: defaultPublishTimeout}
	if pub != nil {
		n.pub = &gcpPublisher{Publisher: pub}
	}
	return n
}

// UnitMoved publishes the event asynchronously. The caller's context is not
// reused: the transition has already committed by the time this runs, so the
// publish gets its own deadline.
func (n *PubSubNotifier) UnitMoved(ctx context.Context, event engine.ActionEvent) {
	if n == nil || n.pub == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logError(ctx, event, err)
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		msg := &gcppubsub.Message{
			Data: payload,
			Attributes: map[string]string{
				"serial":   event.Serial,
				"event":    event.Event,
				"to_phase": string(event.ToPhase),
			},
		}
		result := n.pub.Publish(pubCtx, msg)
		if result == nil {
			return
		}
		if _, err := result.Get(pubCtx); err != nil {
			n.logError(pubCtx, event, err)
		}
	}()
}

func (n *PubSubNotifier) logError(ctx context.Context, event engine.ActionEvent, err error) {
	if n.logg == nil {
		return
	}
	ctx = n.logg.WithSerial(ctx, event.Serial)
	n.logg.Error(ctx, fmt.Sprintf("publishing action event %q", event.Event), err)
}
