package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// NATSDispatcher publishes urgent decisions to a NATS subject as JSON.
type NATSDispatcher struct {
	nc      *nats.Conn
	subject string
}

// Connect dials the NATS server and returns a dispatcher publishing to
// subject.
func Connect(url, subject string) (*NATSDispatcher, error) {
	nc, err := nats.Connect(url,
		nats.Name("procure-notify"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSDispatcher{nc: nc, subject: subject}, nil
}

// Dispatch publishes each decision as a JSON message. Publishing continues
// past individual failures; the joined error is returned for logging.
func (d *NATSDispatcher) Dispatch(ctx context.Context, decisions []domain.Decision) error {
	var errs []error
	for _, dec := range decisions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		data, err := json.Marshal(dec)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal decision %s: %w", dec.ID, err))
			continue
		}
		if err := d.nc.Publish(d.subject, data); err != nil {
			errs = append(errs, fmt.Errorf("publish decision %s: %w", dec.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending messages and drops the connection.
func (d *NATSDispatcher) Close() error {
	if err := d.nc.Flush(); err != nil {
		d.nc.Close()
		return err
	}
	d.nc.Close()
	return nil
}
