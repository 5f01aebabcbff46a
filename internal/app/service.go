package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/shopfloor/internal/domain"
)

// ShopService orchestrates the service-request lifecycle: entity
// registration, request intake, closing, and the fixed reports.
type ShopService struct {
	repo      domain.Repository
	publisher domain.EventPublisher
	validator domain.TransitionValidator
}

// NewShopService creates a service with the given adapters.
func NewShopService(repo domain.Repository, publisher domain.EventPublisher, validator domain.TransitionValidator) *ShopService {
	return &ShopService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
	}
}

// NewCustomer carries the fields needed to register a customer.
type NewCustomer struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// NewCar carries the fields needed to register a car.
type NewCar struct {
	VIN   string
	Make  string
	Model string
	Year  int
}

// RegisterCustomer validates the fields and persists a new customer.
// The id is allocated by the store inside the insert transaction.
func (s *ShopService) RegisterCustomer(ctx context.Context, in NewCustomer) (domain.Customer, error) {
	if err := validateCustomer(in); err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.CreateCustomer(ctx, domain.Customer{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Address:   in.Address,
	})
	if err != nil {
		return domain.Customer{}, fmt.Errorf("creating customer: %w", err)
	}
	return customer, nil
}

// RegisterMechanic validates the fields and persists a new mechanic.
func (s *ShopService) RegisterMechanic(ctx context.Context, firstName, lastName string, experience int) (domain.Mechanic, error) {
	if err := domain.ValidateName("first_name", firstName); err != nil {
		return domain.Mechanic{}, err
	}
	if err := domain.ValidateName("last_name", lastName); err != nil {
		return domain.Mechanic{}, err
	}
	if err := domain.ValidateExperience(experience); err != nil {
		return domain.Mechanic{}, err
	}

	mechanic, err := s.repo.CreateMechanic(ctx, domain.Mechanic{
		FirstName:  firstName,
		LastName:   lastName,
		Experience: experience,
	})
	if err != nil {
		return domain.Mechanic{}, fmt.Errorf("creating mechanic: %w", err)
	}
	return mechanic, nil
}

// RegisterCar validates the fields and persists a car under its VIN.
// Idempotent: registering an already-known VIN is a no-op success.
// Reports whether a new row was created.
func (s *ShopService) RegisterCar(ctx context.Context, in NewCar) (domain.Car, bool, error) {
	if err := validateCar(in); err != nil {
		return domain.Car{}, false, err
	}

	car := domain.Car{VIN: in.VIN, Make: in.Make, Model: in.Model, Year: in.Year}
	created, err := s.repo.EnsureCar(ctx, car)
	if err != nil {
		return domain.Car{}, false, fmt.Errorf("creating car: %w", err)
	}
	if !created {
		existing, err := s.repo.GetCar(ctx, in.VIN)
		if err != nil {
			return domain.Car{}, false, fmt.Errorf("reading existing car: %w", err)
		}
		return existing, false, nil
	}
	return car, true, nil
}

// GetCustomer returns a customer by id.
func (s *ShopService) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// GetMechanic returns a mechanic by id.
func (s *ShopService) GetMechanic(ctx context.Context, id int64) (domain.Mechanic, error) {
	return s.repo.GetMechanic(ctx, id)
}

// GetCar returns a car by VIN.
func (s *ShopService) GetCar(ctx context.Context, vin string) (domain.Car, error) {
	return s.repo.GetCar(ctx, vin)
}

// OpenRequestInput carries the intake fields. The customer is selected
// either by id or by last name; when the selector matches nothing, the
// optional NewCustomer is registered and used. The car is selected by
// VIN from the customer's owned cars, or created from NewCar.
type OpenRequestInput struct {
	CustomerID int64
	LastName   string
	Customer   *NewCustomer

	VIN string
	Car *NewCar

	Odometer  int
	Complaint string
}

// OpenRequest resolves (or creates) the customer and car, then opens a
// service request. The car creation, ownership tie, rid allocation, and
// request insert commit as one transaction in the store, so a failure
// leaves no orphan rows.
func (s *ShopService) OpenRequest(ctx context.Context, in OpenRequestInput) (domain.ServiceRequest, error) {
	if err := domain.ValidateOdometer(in.Odometer); err != nil {
		return domain.ServiceRequest{}, err
	}

	customer, err := s.resolveCustomer(ctx, in)
	if err != nil {
		return domain.ServiceRequest{}, err
	}

	car, err := s.resolveCar(ctx, customer.ID, in)
	if err != nil {
		return domain.ServiceRequest{}, err
	}

	if _, err := s.validator.Apply(ctx, domain.StatusNew, domain.EventOpen); err != nil {
		return domain.ServiceRequest{}, err
	}

	req := domain.NewServiceRequest(customer.ID, car.VIN, in.Odometer, in.Complaint)
	req, err = s.repo.OpenRequest(ctx, req, car)
	if err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("opening request: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.RequestEvent{
		Event:      domain.EventOpen,
		RID:        req.RID,
		CustomerID: req.CustomerID,
		CarVIN:     req.CarVIN,
	}); err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("publishing open event: %w", err)
	}

	return req, nil
}

// resolveCustomer picks the single customer the intake refers to, or
// registers the supplied new one when the selector matches nothing.
func (s *ShopService) resolveCustomer(ctx context.Context, in OpenRequestInput) (domain.Customer, error) {
	if in.CustomerID > 0 {
		return s.repo.GetCustomer(ctx, in.CustomerID)
	}

	if err := domain.ValidateName("last_name", in.LastName); err != nil {
		return domain.Customer{}, err
	}

	matches, err := s.repo.FindCustomersByLastName(ctx, in.LastName)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("finding customers: %w", err)
	}

	switch {
	case len(matches) == 0:
		if in.Customer == nil {
			return domain.Customer{}, &domain.ValidationError{
				Field:  "customer",
				Reason: "no customer matches the selector and no new customer was supplied",
			}
		}
		return s.RegisterCustomer(ctx, *in.Customer)
	case len(matches) == 1:
		return matches[0], nil
	default:
		return domain.Customer{}, &domain.AmbiguousMatchError{
			Entity:     domain.ClassCustomer,
			Selector:   in.LastName,
			Candidates: len(matches),
		}
	}
}

// resolveCar picks the car the request is for. An explicit NewCar wins,
// then an explicit VIN, then the customer's sole owned car.
func (s *ShopService) resolveCar(ctx context.Context, customerID int64, in OpenRequestInput) (domain.Car, error) {
	if in.Car != nil {
		if err := validateCar(*in.Car); err != nil {
			return domain.Car{}, err
		}
		return domain.Car{VIN: in.Car.VIN, Make: in.Car.Make, Model: in.Car.Model, Year: in.Car.Year}, nil
	}

	if in.VIN != "" {
		if err := domain.ValidateVIN(in.VIN); err != nil {
			return domain.Car{}, err
		}
		return s.repo.GetCar(ctx, in.VIN)
	}

	owned, err := s.repo.CarsOwnedBy(ctx, customerID)
	if err != nil {
		return domain.Car{}, fmt.Errorf("listing owned cars: %w", err)
	}

	switch {
	case len(owned) == 0:
		return domain.Car{}, &domain.ValidationError{
			Field:  "car",
			Reason: "customer owns no cars and no new car was supplied",
		}
	case len(owned) == 1:
		return owned[0], nil
	default:
		return domain.Car{}, &domain.AmbiguousMatchError{
			Entity:     domain.ClassCar,
			Selector:   fmt.Sprintf("customer %d", customerID),
			Candidates: len(owned),
		}
	}
}

// CloseRequest assigns a mechanic and a bill to an open request and
// converts it into a closed record. The insert of the closed record and
// the removal of the open row commit as one atomic unit in the store.
func (s *ShopService) CloseRequest(ctx context.Context, rid, mechanicID int64, comment string, bill int) (domain.ClosedRequest, error) {
	if err := domain.ValidateComment(comment); err != nil {
		return domain.ClosedRequest{}, err
	}
	if err := domain.ValidateBill(bill); err != nil {
		return domain.ClosedRequest{}, err
	}

	req, err := s.repo.GetOpenRequest(ctx, rid)
	if err != nil {
		return domain.ClosedRequest{}, err
	}

	if _, err := s.validator.Apply(ctx, domain.StatusOpen, domain.EventClose); err != nil {
		return domain.ClosedRequest{}, err
	}

	closed, err := s.repo.CloseRequest(ctx, req.Close(mechanicID, comment, bill))
	if err != nil {
		return domain.ClosedRequest{}, err
	}

	if err := s.publisher.Publish(ctx, domain.RequestEvent{
		Event:      domain.EventClose,
		RID:        closed.RID,
		CustomerID: closed.CustomerID,
		CarVIN:     closed.CarVIN,
		MechanicID: closed.MechanicID,
		Bill:       closed.Bill,
	}); err != nil {
		return domain.ClosedRequest{}, fmt.Errorf("publishing close event: %w", err)
	}

	return closed, nil
}

// GetOpenRequest returns an open request by rid.
func (s *ShopService) GetOpenRequest(ctx context.Context, rid int64) (domain.ServiceRequest, error) {
	return s.repo.GetOpenRequest(ctx, rid)
}

// ListOpenRequests returns the current open set ordered by rid.
func (s *ShopService) ListOpenRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	return s.repo.ListOpenRequests(ctx)
}

// GetClosedRequest returns a closed record by rid.
func (s *ShopService) GetClosedRequest(ctx context.Context, rid int64) (domain.ClosedRequest, error) {
	return s.repo.GetClosedRequest(ctx, rid)
}

// --- Reports ---

// LowBills returns closed records billed under the threshold.
func (s *ShopService) LowBills(ctx context.Context, below int) ([]domain.ClosedRequest, error) {
	if err := domain.ValidateBill(below); err != nil {
		return nil, err
	}
	return s.repo.ClosedBelowBill(ctx, below)
}

// FleetOwners returns customers owning more than minCars cars.
func (s *ShopService) FleetOwners(ctx context.Context, minCars int) ([]domain.CustomerCars, error) {
	return s.repo.CustomersOwningMoreThan(ctx, minCars)
}

// AgingCars returns cars built before yearBefore with a service-history
// odometer reading under odometerBelow.
func (s *ShopService) AgingCars(ctx context.Context, yearBefore, odometerBelow int) ([]domain.Car, error) {
	return s.repo.CarsOlderWithLowMileage(ctx, yearBefore, odometerBelow)
}

// TopServicedCars returns the k most-serviced cars.
func (s *ShopService) TopServicedCars(ctx context.Context, k int) ([]domain.CarServices, error) {
	if k <= 0 {
		return nil, &domain.ValidationError{Field: "k", Reason: "must be greater than zero"}
	}
	return s.repo.TopServicedCars(ctx, k)
}

// BillingRanking returns customers ordered by descending total bill.
func (s *ShopService) BillingRanking(ctx context.Context) ([]domain.CustomerBill, error) {
	return s.repo.CustomersByTotalBill(ctx)
}

func validateCustomer(in NewCustomer) error {
	if err := domain.ValidateName("first_name", in.FirstName); err != nil {
		return err
	}
	if err := domain.ValidateName("last_name", in.LastName); err != nil {
		return err
	}
	if err := domain.ValidatePhone(in.Phone); err != nil {
		return err
	}
	return domain.ValidateAddress(in.Address)
}

func validateCar(in NewCar) error {
	if err := domain.ValidateVIN(in.VIN); err != nil {
		return err
	}
	if err := domain.ValidateName("make", in.Make); err != nil {
		return err
	}
	if err := domain.ValidateName("model", in.Model); err != nil {
		return err
	}
	return domain.ValidateYear(in.Year)
}
