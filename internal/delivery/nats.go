package delivery

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/example/learning-platform/internal/progress"
)

// DefaultSubject is the JetStream subject the activity service consumes.
const DefaultSubject = "activity.progress"

// JetStreamSink publishes progress events to NATS JetStream instead of the
// HTTP endpoint. Used when the agent runs inside the platform network and
// can talk to the event bus directly. Auth rides on the NATS connection, so
// the per-cycle credential is ignored.
type JetStreamSink struct {
	js      nats.JetStreamContext
	subject string
}

func NewJetStreamSink(nc *nats.Conn, subject string) (*JetStreamSink, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &JetStreamSink{js: js, subject: subject}, nil
}

func (s *JetStreamSink) Deliver(_ context.Context, _ string, rec progress.Record) error {
	body, err := json.Marshal(NewEvent(rec))
	if err != nil {
		return err
	}
	_, err = s.js.Publish(s.subject, body)
	return err
}
