package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/shopfloor/internal/domain"
)

func TestNewServiceRequest(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Second)
	req := domain.NewServiceRequest(7, "1HGCM82633A12345", 42000, "brakes squeal")
	after := time.Now().UTC()

	if req.RID != 0 {
		t.Errorf("RID = %d, want 0 before persistence", req.RID)
	}
	if req.CustomerID != 7 {
		t.Errorf("CustomerID = %d, want %d", req.CustomerID, 7)
	}
	if req.CarVIN != "1HGCM82633A12345" {
		t.Errorf("CarVIN = %q, want %q", req.CarVIN, "1HGCM82633A12345")
	}
	if req.Odometer != 42000 {
		t.Errorf("Odometer = %d, want %d", req.Odometer, 42000)
	}
	if req.Complaint != "brakes squeal" {
		t.Errorf("Complaint = %q, want %q", req.Complaint, "brakes squeal")
	}
	if req.OpenedAt.Before(before) || req.OpenedAt.After(after) {
		t.Errorf("OpenedAt = %v, want between %v and %v", req.OpenedAt, before, after)
	}
	if req.OpenedAt.Location() != time.UTC {
		t.Errorf("OpenedAt location = %v, want UTC", req.OpenedAt.Location())
	}
	if !req.OpenedAt.Equal(req.OpenedAt.Truncate(time.Second)) {
		t.Errorf("OpenedAt = %v, want second precision", req.OpenedAt)
	}
}

func TestServiceRequest_Close(t *testing.T) {
	req := domain.ServiceRequest{
		RID:        3,
		CustomerID: 7,
		CarVIN:     "1HGCM82633A12345",
		OpenedAt:   time.Date(2021, 4, 1, 9, 0, 0, 0, time.UTC),
		Odometer:   42000,
		Complaint:  "brakes squeal",
	}

	closed := req.Close(2, "replaced pads", 150)

	if closed.RID != req.RID {
		t.Errorf("RID = %d, want %d (same identifier as the open request)", closed.RID, req.RID)
	}
	if closed.CustomerID != req.CustomerID {
		t.Errorf("CustomerID = %d, want %d", closed.CustomerID, req.CustomerID)
	}
	if closed.CarVIN != req.CarVIN {
		t.Errorf("CarVIN = %q, want %q", closed.CarVIN, req.CarVIN)
	}
	if closed.Odometer != req.Odometer {
		t.Errorf("Odometer = %d, want %d", closed.Odometer, req.Odometer)
	}
	if closed.MechanicID != 2 {
		t.Errorf("MechanicID = %d, want %d", closed.MechanicID, 2)
	}
	if closed.Comment != "replaced pads" {
		t.Errorf("Comment = %q, want %q", closed.Comment, "replaced pads")
	}
	if closed.Bill != 150 {
		t.Errorf("Bill = %d, want %d", closed.Bill, 150)
	}
	if closed.ClosedAt.Before(req.OpenedAt) {
		t.Errorf("ClosedAt = %v, want not before OpenedAt %v", closed.ClosedAt, req.OpenedAt)
	}
}

func TestTransitions_ValidPaths(t *testing.T) {
	// The full lifecycle: new → open → closed.
	cases := []struct {
		event domain.Event
		src   domain.Status
		dst   domain.Status
	}{
		{domain.EventOpen, domain.StatusNew, domain.StatusOpen},
		{domain.EventClose, domain.StatusOpen, domain.StatusClosed},
	}

	for _, tc := range cases {
		found := false
		for _, tr := range domain.Transitions {
			if tr.Event == tc.event && tr.Src == tc.src && tr.Dst == tc.dst {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing transition: %q from %q to %q", tc.event, tc.src, tc.dst)
		}
	}
}

func TestTransitions_InvalidPaths(t *testing.T) {
	// These transitions must NOT exist: closed is terminal and a request
	// cannot be reopened or closed twice.
	invalid := []struct {
		event domain.Event
		src   domain.Status
	}{
		{domain.EventClose, domain.StatusNew},
		{domain.EventClose, domain.StatusClosed},
		{domain.EventOpen, domain.StatusOpen},
		{domain.EventOpen, domain.StatusClosed},
	}

	for _, tc := range invalid {
		for _, tr := range domain.Transitions {
			if tr.Event == tc.event && tr.Src == tc.src {
				t.Errorf("unexpected transition: %q from %q should not exist", tc.event, tc.src)
			}
		}
	}
}
