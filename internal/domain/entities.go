package domain

// EntityClass names a class of stored records. The identifier allocator
// and the NotFoundError type are parameterized by it.
type EntityClass string

const (
	ClassCustomer EntityClass = "customer"
	ClassMechanic EntityClass = "mechanic"
	ClassCar      EntityClass = "car"
	ClassRequest  EntityClass = "service_request"
)

// Customer is a person the shop services cars for. Customers are created
// once and never updated or deleted.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// Mechanic is an employee who can be assigned to close a service request.
type Mechanic struct {
	ID         int64
	FirstName  string
	LastName   string
	Experience int
}

// Car is keyed by its VIN, a natural key. A car is created once per
// distinct VIN and never updated.
type Car struct {
	VIN   string
	Make  string
	Model string
	Year  int
}

// Ownership ties a customer to a car. Many-to-many: a car may be owned
// by several customers and a customer may own several cars.
type Ownership struct {
	CustomerID int64
	CarVIN     string
}
