package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/shopfloor/internal/domain"
)

const tracerName = "github.com/neomorfeo/shopfloor/internal/adapter/otel"

// TracingRepository wraps a domain.Repository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.Repository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.Repository.
var _ domain.Repository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.Repository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

// recordErr marks the span failed when err is non-nil.
func recordErr(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (r *TracingRepository) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CreateCustomer",
		trace.WithAttributes(attribute.String("customer.last_name", c.LastName)),
	)
	defer span.End()

	created, err := r.next.CreateCustomer(ctx, c)
	if err == nil {
		span.SetAttributes(attribute.Int64("customer.id", created.ID))
	}
	recordErr(span, err)
	return created, err
}

func (r *TracingRepository) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.GetCustomer",
		trace.WithAttributes(attribute.Int64("customer.id", id)),
	)
	defer span.End()

	customer, err := r.next.GetCustomer(ctx, id)
	recordErr(span, err)
	return customer, err
}

func (r *TracingRepository) FindCustomersByLastName(ctx context.Context, lastName string) ([]domain.Customer, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.FindCustomersByLastName",
		trace.WithAttributes(attribute.String("customer.last_name", lastName)),
	)
	defer span.End()

	customers, err := r.next.FindCustomersByLastName(ctx, lastName)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(customers)))
	}
	recordErr(span, err)
	return customers, err
}

func (r *TracingRepository) CreateMechanic(ctx context.Context, m domain.Mechanic) (domain.Mechanic, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CreateMechanic",
		trace.WithAttributes(attribute.String("mechanic.last_name", m.LastName)),
	)
	defer span.End()

	created, err := r.next.CreateMechanic(ctx, m)
	if err == nil {
		span.SetAttributes(attribute.Int64("mechanic.id", created.ID))
	}
	recordErr(span, err)
	return created, err
}

func (r *TracingRepository) GetMechanic(ctx context.Context, id int64) (domain.Mechanic, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.GetMechanic",
		trace.WithAttributes(attribute.Int64("mechanic.id", id)),
	)
	defer span.End()

	mechanic, err := r.next.GetMechanic(ctx, id)
	recordErr(span, err)
	return mechanic, err
}

func (r *TracingRepository) EnsureCar(ctx context.Context, c domain.Car) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.EnsureCar",
		trace.WithAttributes(attribute.String("car.vin", c.VIN)),
	)
	defer span.End()

	created, err := r.next.EnsureCar(ctx, c)
	if err == nil {
		span.SetAttributes(attribute.Bool("car.created", created))
	}
	recordErr(span, err)
	return created, err
}

func (r *TracingRepository) GetCar(ctx context.Context, vin string) (domain.Car, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.GetCar",
		trace.WithAttributes(attribute.String("car.vin", vin)),
	)
	defer span.End()

	car, err := r.next.GetCar(ctx, vin)
	recordErr(span, err)
	return car, err
}

func (r *TracingRepository) AddOwnership(ctx context.Context, customerID int64, vin string) error {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.AddOwnership",
		trace.WithAttributes(
			attribute.Int64("customer.id", customerID),
			attribute.String("car.vin", vin),
		),
	)
	defer span.End()

	err := r.next.AddOwnership(ctx, customerID, vin)
	recordErr(span, err)
	return err
}

func (r *TracingRepository) CarsOwnedBy(ctx context.Context, customerID int64) ([]domain.Car, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CarsOwnedBy",
		trace.WithAttributes(attribute.Int64("customer.id", customerID)),
	)
	defer span.End()

	cars, err := r.next.CarsOwnedBy(ctx, customerID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(cars)))
	}
	recordErr(span, err)
	return cars, err
}

func (r *TracingRepository) NextID(ctx context.Context, class domain.EntityClass) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.NextID",
		trace.WithAttributes(attribute.String("entity.class", string(class))),
	)
	defer span.End()

	id, err := r.next.NextID(ctx, class)
	recordErr(span, err)
	return id, err
}

func (r *TracingRepository) OpenRequest(ctx context.Context, req domain.ServiceRequest, car domain.Car) (domain.ServiceRequest, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.OpenRequest",
		trace.WithAttributes(
			attribute.Int64("customer.id", req.CustomerID),
			attribute.String("car.vin", req.CarVIN),
		),
	)
	defer span.End()

	opened, err := r.next.OpenRequest(ctx, req, car)
	if err == nil {
		span.SetAttributes(attribute.Int64("request.rid", opened.RID))
	}
	recordErr(span, err)
	return opened, err
}

func (r *TracingRepository) GetOpenRequest(ctx context.Context, rid int64) (domain.ServiceRequest, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.GetOpenRequest",
		trace.WithAttributes(attribute.Int64("request.rid", rid)),
	)
	defer span.End()

	req, err := r.next.GetOpenRequest(ctx, rid)
	recordErr(span, err)
	return req, err
}

func (r *TracingRepository) ListOpenRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.ListOpenRequests")
	defer span.End()

	reqs, err := r.next.ListOpenRequests(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(reqs)))
	}
	recordErr(span, err)
	return reqs, err
}

func (r *TracingRepository) CloseRequest(ctx context.Context, cr domain.ClosedRequest) (domain.ClosedRequest, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CloseRequest",
		trace.WithAttributes(
			attribute.Int64("request.rid", cr.RID),
			attribute.Int64("mechanic.id", cr.MechanicID),
			attribute.Int("request.bill", cr.Bill),
		),
	)
	defer span.End()

	closed, err := r.next.CloseRequest(ctx, cr)
	recordErr(span, err)
	return closed, err
}

func (r *TracingRepository) GetClosedRequest(ctx context.Context, rid int64) (domain.ClosedRequest, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.GetClosedRequest",
		trace.WithAttributes(attribute.Int64("request.rid", rid)),
	)
	defer span.End()

	cr, err := r.next.GetClosedRequest(ctx, rid)
	recordErr(span, err)
	return cr, err
}

func (r *TracingRepository) ClosedBelowBill(ctx context.Context, below int) ([]domain.ClosedRequest, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.ClosedBelowBill",
		trace.WithAttributes(attribute.Int("report.below", below)),
	)
	defer span.End()

	rows, err := r.next.ClosedBelowBill(ctx, below)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(rows)))
	}
	recordErr(span, err)
	return rows, err
}

func (r *TracingRepository) CustomersOwningMoreThan(ctx context.Context, n int) ([]domain.CustomerCars, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CustomersOwningMoreThan",
		trace.WithAttributes(attribute.Int("report.min_cars", n)),
	)
	defer span.End()

	rows, err := r.next.CustomersOwningMoreThan(ctx, n)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(rows)))
	}
	recordErr(span, err)
	return rows, err
}

func (r *TracingRepository) CarsOlderWithLowMileage(ctx context.Context, yearBefore, odometerBelow int) ([]domain.Car, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CarsOlderWithLowMileage",
		trace.WithAttributes(
			attribute.Int("report.year_before", yearBefore),
			attribute.Int("report.odometer_below", odometerBelow),
		),
	)
	defer span.End()

	rows, err := r.next.CarsOlderWithLowMileage(ctx, yearBefore, odometerBelow)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(rows)))
	}
	recordErr(span, err)
	return rows, err
}

func (r *TracingRepository) TopServicedCars(ctx context.Context, k int) ([]domain.CarServices, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.TopServicedCars",
		trace.WithAttributes(attribute.Int("report.k", k)),
	)
	defer span.End()

	rows, err := r.next.TopServicedCars(ctx, k)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(rows)))
	}
	recordErr(span, err)
	return rows, err
}

func (r *TracingRepository) CustomersByTotalBill(ctx context.Context) ([]domain.CustomerBill, error) {
	ctx, span := r.tracer.Start(ctx, "ShopRepository.CustomersByTotalBill")
	defer span.End()

	rows, err := r.next.CustomersByTotalBill(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(rows)))
	}
	recordErr(span, err)
	return rows, err
}
