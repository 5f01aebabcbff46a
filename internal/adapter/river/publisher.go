package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/shopfloor/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// RequestJobArgs carries a lifecycle event for asynchronous processing.
// River serializes this as JSON into its job queue table. The payload
// snapshots the request at publish time, so the worker never needs to
// query the database.
type RequestJobArgs struct {
	Event      string `json:"event"`
	RID        int64  `json:"rid"`
	CustomerID int64  `json:"customer_id"`
	CarVIN     string `json:"car_vin"`
	MechanicID int64  `json:"mechanic_id,omitempty"`
	Bill       int    `json:"bill,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (RequestJobArgs) Kind() string { return "request.lifecycle" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a lifecycle event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, ev domain.RequestEvent) error {
	_, err := p.client.Insert(ctx, RequestJobArgs{
		Event:      string(ev.Event),
		RID:        ev.RID,
		CustomerID: ev.CustomerID,
		CarVIN:     ev.CarVIN,
		MechanicID: ev.MechanicID,
		Bill:       ev.Bill,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing request event job: %w", err)
	}
	return nil
}
