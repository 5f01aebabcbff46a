package domain

import "context"

// Repository defines the persistence contract for the shop. Mutating
// composite operations (create-with-id, open, close) are single atomic
// units: the implementation must commit every write or none.
type Repository interface {
	// CreateCustomer allocates the next customer id and inserts the row,
	// both inside one transaction. Returns the customer with its id set.
	CreateCustomer(ctx context.Context, c Customer) (Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	FindCustomersByLastName(ctx context.Context, lastName string) ([]Customer, error)

	// CreateMechanic allocates the next mechanic id and inserts the row.
	CreateMechanic(ctx context.Context, m Mechanic) (Mechanic, error)
	GetMechanic(ctx context.Context, id int64) (Mechanic, error)

	// EnsureCar inserts the car if its VIN is unseen. Idempotent: a
	// second call with the same VIN is a no-op success. Reports whether
	// a row was created.
	EnsureCar(ctx context.Context, c Car) (bool, error)
	GetCar(ctx context.Context, vin string) (Car, error)

	// AddOwnership records a customer-car tie. Idempotent.
	AddOwnership(ctx context.Context, customerID int64, vin string) error
	CarsOwnedBy(ctx context.Context, customerID int64) ([]Car, error)

	// NextID reports the id the allocator would hand out for the class
	// at the instant of the read. Pure read: transactional callers must
	// not rely on it, allocation happens inside the mutating operations.
	NextID(ctx context.Context, class EntityClass) (int64, error)

	// OpenRequest allocates a rid, ensures the car and its ownership tie
	// exist, and inserts the open request, all in one transaction. The
	// car argument supplies the row to insert when the VIN is unseen.
	OpenRequest(ctx context.Context, req ServiceRequest, car Car) (ServiceRequest, error)
	GetOpenRequest(ctx context.Context, rid int64) (ServiceRequest, error)
	ListOpenRequests(ctx context.Context) ([]ServiceRequest, error)

	// CloseRequest inserts the closed record and removes the open row as
	// one atomic unit. The rid must be open and the mechanic must exist.
	CloseRequest(ctx context.Context, cr ClosedRequest) (ClosedRequest, error)
	GetClosedRequest(ctx context.Context, rid int64) (ClosedRequest, error)

	Reporter
}

// Reporter holds the fixed read-only aggregation queries. No mutation.
type Reporter interface {
	// ClosedBelowBill returns closed records billed under the threshold,
	// ordered by rid.
	ClosedBelowBill(ctx context.Context, below int) ([]ClosedRequest, error)
	// CustomersOwningMoreThan returns customers tied to more than n cars.
	CustomersOwningMoreThan(ctx context.Context, n int) ([]CustomerCars, error)
	// CarsOlderWithLowMileage returns distinct cars built before the year
	// cutoff whose service history shows a reading under the mileage
	// cutoff.
	CarsOlderWithLowMileage(ctx context.Context, yearBefore, odometerBelow int) ([]Car, error)
	// TopServicedCars returns the k cars with the most service requests,
	// counting open and closed, ties broken by ascending VIN.
	TopServicedCars(ctx context.Context, k int) ([]CarServices, error)
	// CustomersByTotalBill ranks customers by descending sum of their
	// closed-request bills.
	CustomersByTotalBill(ctx context.Context) ([]CustomerBill, error)
}

// CustomerCars is a report row pairing a customer with a car count.
type CustomerCars struct {
	Customer
	Cars int
}

// CarServices is a report row pairing a car with its request count.
type CarServices struct {
	Car
	Services int
}

// CustomerBill is a report row pairing a customer with their billed total.
type CustomerBill struct {
	Customer
	Total int
}

// EventPublisher defines the contract for emitting lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev RequestEvent) error
}

// TransitionValidator checks whether an event is valid from a state and
// returns the destination state.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
