package domain

import "time"

// Status represents the lifecycle state of a service request.
type Status string

const (
	// StatusNew is the transient state of an intake that has not been
	// persisted yet.
	StatusNew Status = "new"
	// StatusOpen means the request sits in the open set awaiting work.
	StatusOpen Status = "open"
	// StatusClosed means the request has been converted into a billed
	// closed record. Terminal: a rid never returns to the open set.
	StatusClosed Status = "closed"
)

// Event represents an action that triggers a state transition.
type Event string

const (
	EventOpen  Event = "open"
	EventClose Event = "close"
)

// Transition defines a valid state change: an event moves a request from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the request lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventOpen, Src: StatusNew, Dst: StatusOpen},
	{Event: EventClose, Src: StatusOpen, Dst: StatusClosed},
}

// ServiceRequest is an open request linking a customer and one of their
// cars to a complaint. It is created by intake and removed from the open
// set exactly once, at close time.
type ServiceRequest struct {
	RID        int64
	CustomerID int64
	CarVIN     string
	OpenedAt   time.Time
	Odometer   int
	Complaint  string
}

// NewServiceRequest builds an open request stamped with the current time.
// Timestamps are UTC at second precision, matching what the store keeps.
func NewServiceRequest(customerID int64, vin string, odometer int, complaint string) ServiceRequest {
	return ServiceRequest{
		CustomerID: customerID,
		CarVIN:     vin,
		OpenedAt:   time.Now().UTC().Truncate(time.Second),
		Odometer:   odometer,
		Complaint:  complaint,
	}
}

// ClosedRequest is the billed record a service request becomes when it is
// closed. Its RID is the same value as the open request it replaces.
// CustomerID, CarVIN, and Odometer are carried forward from the open row
// so service history survives the deletion of the open record.
type ClosedRequest struct {
	RID        int64
	CustomerID int64
	CarVIN     string
	MechanicID int64
	ClosedAt   time.Time
	Odometer   int
	Comment    string
	Bill       int
}

// Close converts an open request into its closed record. It does not
// touch any store; persistence and the atomic open-set removal are the
// repository's job.
func (r ServiceRequest) Close(mechanicID int64, comment string, bill int) ClosedRequest {
	return ClosedRequest{
		RID:        r.RID,
		CustomerID: r.CustomerID,
		CarVIN:     r.CarVIN,
		MechanicID: mechanicID,
		ClosedAt:   time.Now().UTC().Truncate(time.Second),
		Odometer:   r.Odometer,
		Comment:    comment,
		Bill:       bill,
	}
}

// RequestEvent is the payload published on every accepted lifecycle
// transition. It snapshots the request so consumers never need to read
// the store.
type RequestEvent struct {
	Event      Event
	RID        int64
	CustomerID int64
	CarVIN     string
	MechanicID int64
	Bill       int
}
