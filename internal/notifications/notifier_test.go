package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/rcastellanos/modemtrack-backend/internal/engine"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

type stubResult struct{}

func (stubResult) Get(ctx context.Context) (string, error) { return "msg-1", nil }

type stubPublisher struct {
	published chan *gcppubsub.Message
}

func (s *stubPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	s.published <- msg
	return stubResult{}
}

func TestUnitMovedPublishesEventPayload(t *testing.T) {
	pub := &stubPublisher{published: make(chan *gcppubsub.Message, 1)}
	n := &PubSubNotifier{pub: pub, timeout: time.Second}

	n.UnitMoved(context.Background(), engine.ActionEvent{
		Serial:   "ABC123",
		Event:    "Completar RETEST",
		ToPhase:  enums.PhasePackaging,
		Outcome:  enums.OutcomeSerialOK,
		Operator: "hugo.vega",
		Role:     enums.OperatorRoleRetest,
		At:       time.Now().UTC(),
	})

	select {
	case msg := <-pub.published:
		if msg.Attributes["serial"] != "ABC123" {
			t.Fatalf("unexpected serial attribute %q", msg.Attributes["serial"])
		}
		if msg.Attributes["to_phase"] != "EMPAQUE" {
			t.Fatalf("unexpected to_phase attribute %q", msg.Attributes["to_phase"])
		}
		var event engine.ActionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if event.Event != "Completar RETEST" || event.Operator != "hugo.vega" {
			t.Fatalf("unexpected payload %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publish never happened")
	}
}

func TestUnitMovedWithoutPublisherIsNoop(t *testing.T) {
	n := NewPubSubNotifier(nil, nil)
	// must not panic or block
	n.UnitMoved(context.Background(), engine.ActionEvent{Serial: "ABC123"})
}
