package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/shopfloor/internal/app"
	"github.com/neomorfeo/shopfloor/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// CustomerResponse is the API representation of a customer.
type CustomerResponse struct {
	ID        int64  `json:"id" doc:"Unique identifier"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func toCustomerResponse(c domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Address:   c.Address,
	}
}

// MechanicResponse is the API representation of a mechanic.
type MechanicResponse struct {
	ID         int64  `json:"id" doc:"Unique identifier"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Experience int    `json:"experience" doc:"Years of experience"`
}

// CarResponse is the API representation of a car.
type CarResponse struct {
	VIN   string `json:"vin" doc:"Natural key, 16 characters"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

func toCarResponse(c domain.Car) CarResponse {
	return CarResponse{VIN: c.VIN, Make: c.Make, Model: c.Model, Year: c.Year}
}

// RequestResponse is the API representation of an open service request.
type RequestResponse struct {
	RID        int64  `json:"rid" doc:"Unique request identifier"`
	CustomerID int64  `json:"customer_id"`
	CarVIN     string `json:"car_vin"`
	OpenedAt   string `json:"opened_at" doc:"Opening timestamp (ISO 8601)"`
	Odometer   int    `json:"odometer"`
	Complaint  string `json:"complaint,omitempty"`
}

func toRequestResponse(r domain.ServiceRequest) RequestResponse {
	return RequestResponse{
		RID:        r.RID,
		CustomerID: r.CustomerID,
		CarVIN:     r.CarVIN,
		OpenedAt:   r.OpenedAt.Format(timeFormat),
		Odometer:   r.Odometer,
		Complaint:  r.Complaint,
	}
}

// ClosedResponse is the API representation of a closed, billed record.
type ClosedResponse struct {
	RID        int64  `json:"rid" doc:"Request identifier, same value as when open"`
	CustomerID int64  `json:"customer_id"`
	CarVIN     string `json:"car_vin"`
	MechanicID int64  `json:"mechanic_id"`
	ClosedAt   string `json:"closed_at" doc:"Closing timestamp (ISO 8601)"`
	Odometer   int    `json:"odometer"`
	Comment    string `json:"comment"`
	Bill       int    `json:"bill"`
}

func toClosedResponse(c domain.ClosedRequest) ClosedResponse {
	return ClosedResponse{
		RID:        c.RID,
		CustomerID: c.CustomerID,
		CarVIN:     c.CarVIN,
		MechanicID: c.MechanicID,
		ClosedAt:   c.ClosedAt.Format(timeFormat),
		Odometer:   c.Odometer,
		Comment:    c.Comment,
		Bill:       c.Bill,
	}
}

// NewCustomerBody carries customer fields in create and intake bodies.
type NewCustomerBody struct {
	FirstName string `json:"first_name" minLength:"1" maxLength:"32"`
	LastName  string `json:"last_name" minLength:"1" maxLength:"32"`
	Phone     string `json:"phone" doc:"NXX-NXX-XXXX"`
	Address   string `json:"address" minLength:"1" maxLength:"256"`
}

func (b NewCustomerBody) toInput() app.NewCustomer {
	return app.NewCustomer{
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Phone:     b.Phone,
		Address:   b.Address,
	}
}

// NewCarBody carries car fields in create and intake bodies.
type NewCarBody struct {
	VIN   string `json:"vin" minLength:"16" maxLength:"16"`
	Make  string `json:"make" minLength:"1" maxLength:"32"`
	Model string `json:"model" minLength:"1" maxLength:"32"`
	Year  int    `json:"year" minimum:"1" maximum:"2021"`
}

func (b NewCarBody) toInput() app.NewCar {
	return app.NewCar{VIN: b.VIN, Make: b.Make, Model: b.Model, Year: b.Year}
}

// --- Inputs and outputs ---

type CreateCustomerInput struct {
	Body NewCustomerBody
}

type CreateCustomerOutput struct {
	Body CustomerResponse
}

type GetCustomerInput struct {
	ID int64 `path:"id" doc:"Customer ID"`
}

type GetCustomerOutput struct {
	Body CustomerResponse
}

type CreateMechanicInput struct {
	Body struct {
		FirstName  string `json:"first_name" minLength:"1" maxLength:"32"`
		LastName   string `json:"last_name" minLength:"1" maxLength:"32"`
		Experience int    `json:"experience" minimum:"1" maximum:"99" doc:"Years of experience"`
	}
}

type CreateMechanicOutput struct {
	Body MechanicResponse
}

type GetMechanicInput struct {
	ID int64 `path:"id" doc:"Mechanic ID"`
}

type GetMechanicOutput struct {
	Body MechanicResponse
}

type CreateCarInput struct {
	Body NewCarBody
}

type CreateCarOutput struct {
	Body struct {
		CarResponse
		Created bool `json:"created" doc:"False when the VIN was already registered"`
	}
}

type GetCarInput struct {
	VIN string `path:"vin" doc:"Car VIN"`
}

type GetCarOutput struct {
	Body CarResponse
}

type OpenRequestInput struct {
	Body struct {
		CustomerID int64            `json:"customer_id,omitempty" doc:"Explicit customer choice; 0 to resolve by last name"`
		LastName   string           `json:"last_name,omitempty" doc:"Customer selector when no id is given"`
		Customer   *NewCustomerBody `json:"customer,omitempty" doc:"Registered when the selector matches nobody"`
		VIN        string           `json:"vin,omitempty" doc:"Explicit car choice"`
		Car        *NewCarBody      `json:"car,omitempty" doc:"Registered when the customer has no matching car"`
		Odometer   int              `json:"odometer" minimum:"0" maximum:"9999999"`
		Complaint  string           `json:"complaint,omitempty"`
	}
}

type OpenRequestOutput struct {
	Body RequestResponse
}

type ListRequestsOutput struct {
	Body []RequestResponse
}

type CloseRequestInput struct {
	RID  int64 `path:"rid" doc:"Request ID"`
	Body struct {
		MechanicID int64  `json:"mechanic_id"`
		Comment    string `json:"comment" minLength:"1"`
		Bill       int    `json:"bill" minimum:"0"`
	}
}

type CloseRequestOutput struct {
	Body ClosedResponse
}

type LowBillsInput struct {
	Below int `query:"below" required:"false" default:"100" doc:"Bill threshold"`
}

type LowBillsOutput struct {
	Body ReportBody[ClosedResponse]
}

type FleetOwnersInput struct {
	MinCars int `query:"min_cars" required:"false" default:"20" doc:"Car-count threshold"`
}

type FleetOwnersOutput struct {
	Body ReportBody[CustomerCarsRow]
}

type AgingCarsInput struct {
	YearBefore    int `query:"year_before" required:"false" default:"1995"`
	OdometerBelow int `query:"odometer_below" required:"false" default:"50000"`
}

type AgingCarsOutput struct {
	Body ReportBody[CarResponse]
}

type TopServicedInput struct {
	K int `query:"k" required:"false" default:"10" minimum:"1" doc:"Number of cars"`
}

type TopServicedOutput struct {
	Body ReportBody[CarServicesRow]
}

type BillingRankingOutput struct {
	Body ReportBody[CustomerBillRow]
}

// ReportBody wraps report rows with their count, the shape every fixed
// report returns.
type ReportBody[T any] struct {
	Rows  []T `json:"rows"`
	Count int `json:"count"`
}

func toReportBody[T any](rows []T) ReportBody[T] {
	if rows == nil {
		rows = []T{}
	}
	return ReportBody[T]{Rows: rows, Count: len(rows)}
}

// CustomerCarsRow is a report row pairing a customer with a car count.
type CustomerCarsRow struct {
	CustomerResponse
	Cars int `json:"cars"`
}

// CarServicesRow is a report row pairing a car with its request count.
type CarServicesRow struct {
	CarResponse
	Services int `json:"services"`
}

// CustomerBillRow is a report row pairing a customer with a billed total.
type CustomerBillRow struct {
	CustomerResponse
	Total int `json:"total"`
}

// Register adds all shop API routes to the Huma API.
func Register(api huma.API, svc *app.ShopService) {
	registerEntities(api, svc)
	registerRequests(api, svc)
	registerReports(api, svc)
}

func registerEntities(api huma.API, svc *app.ShopService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-customer",
		Method:      http.MethodPost,
		Path:        "/api/v1/customers",
		Summary:     "Register a new customer",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *CreateCustomerInput) (*CreateCustomerOutput, error) {
		customer, err := svc.RegisterCustomer(ctx, input.Body.toInput())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateCustomerOutput{Body: toCustomerResponse(customer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-customer",
		Method:      http.MethodGet,
		Path:        "/api/v1/customers/{id}",
		Summary:     "Get a customer by ID",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *GetCustomerInput) (*GetCustomerOutput, error) {
		customer, err := svc.GetCustomer(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetCustomerOutput{Body: toCustomerResponse(customer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-mechanic",
		Method:      http.MethodPost,
		Path:        "/api/v1/mechanics",
		Summary:     "Register a new mechanic",
		Tags:        []string{"Mechanics"},
	}, func(ctx context.Context, input *CreateMechanicInput) (*CreateMechanicOutput, error) {
		mechanic, err := svc.RegisterMechanic(ctx, input.Body.FirstName, input.Body.LastName, input.Body.Experience)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateMechanicOutput{Body: MechanicResponse{
			ID:         mechanic.ID,
			FirstName:  mechanic.FirstName,
			LastName:   mechanic.LastName,
			Experience: mechanic.Experience,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-mechanic",
		Method:      http.MethodGet,
		Path:        "/api/v1/mechanics/{id}",
		Summary:     "Get a mechanic by ID",
		Tags:        []string{"Mechanics"},
	}, func(ctx context.Context, input *GetMechanicInput) (*GetMechanicOutput, error) {
		mechanic, err := svc.GetMechanic(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetMechanicOutput{Body: MechanicResponse{
			ID:         mechanic.ID,
			FirstName:  mechanic.FirstName,
			LastName:   mechanic.LastName,
			Experience: mechanic.Experience,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-car",
		Method:      http.MethodPost,
		Path:        "/api/v1/cars",
		Summary:     "Register a car (idempotent per VIN)",
		Tags:        []string{"Cars"},
	}, func(ctx context.Context, input *CreateCarInput) (*CreateCarOutput, error) {
		car, created, err := svc.RegisterCar(ctx, input.Body.toInput())
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &CreateCarOutput{}
		out.Body.CarResponse = toCarResponse(car)
		out.Body.Created = created
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-car",
		Method:      http.MethodGet,
		Path:        "/api/v1/cars/{vin}",
		Summary:     "Get a car by VIN",
		Tags:        []string{"Cars"},
	}, func(ctx context.Context, input *GetCarInput) (*GetCarOutput, error) {
		car, err := svc.GetCar(ctx, input.VIN)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetCarOutput{Body: toCarResponse(car)}, nil
	})
}

func registerRequests(api huma.API, svc *app.ShopService) {
	huma.Register(api, huma.Operation{
		OperationID: "open-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests",
		Summary:     "Open a service request",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *OpenRequestInput) (*OpenRequestOutput, error) {
		in := app.OpenRequestInput{
			CustomerID: input.Body.CustomerID,
			LastName:   input.Body.LastName,
			VIN:        input.Body.VIN,
			Odometer:   input.Body.Odometer,
			Complaint:  input.Body.Complaint,
		}
		if input.Body.Customer != nil {
			c := input.Body.Customer.toInput()
			in.Customer = &c
		}
		if input.Body.Car != nil {
			c := input.Body.Car.toInput()
			in.Car = &c
		}

		req, err := svc.OpenRequest(ctx, in)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OpenRequestOutput{Body: toRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests",
		Summary:     "List open service requests",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, _ *struct{}) (*ListRequestsOutput, error) {
		reqs, err := svc.ListOpenRequests(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]RequestResponse, len(reqs))
		for i, r := range reqs {
			resp[i] = toRequestResponse(r)
		}
		return &ListRequestsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests/{rid}/close",
		Summary:     "Close a service request with a mechanic and a bill",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *CloseRequestInput) (*CloseRequestOutput, error) {
		closed, err := svc.CloseRequest(ctx, input.RID, input.Body.MechanicID, input.Body.Comment, input.Body.Bill)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CloseRequestOutput{Body: toClosedResponse(closed)}, nil
	})
}

func registerReports(api huma.API, svc *app.ShopService) {
	huma.Register(api, huma.Operation{
		OperationID: "report-low-bills",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/low-bills",
		Summary:     "Closed requests billed under a threshold",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *LowBillsInput) (*LowBillsOutput, error) {
		rows, err := svc.LowBills(ctx, input.Below)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ClosedResponse, len(rows))
		for i, r := range rows {
			resp[i] = toClosedResponse(r)
		}
		return &LowBillsOutput{Body: toReportBody(resp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-fleet-owners",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/fleet-owners",
		Summary:     "Customers owning more than a number of cars",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *FleetOwnersInput) (*FleetOwnersOutput, error) {
		rows, err := svc.FleetOwners(ctx, input.MinCars)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]CustomerCarsRow, len(rows))
		for i, r := range rows {
			resp[i] = CustomerCarsRow{CustomerResponse: toCustomerResponse(r.Customer), Cars: r.Cars}
		}
		return &FleetOwnersOutput{Body: toReportBody(resp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-aging-cars",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/aging-cars",
		Summary:     "Old cars with low service-history mileage",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *AgingCarsInput) (*AgingCarsOutput, error) {
		rows, err := svc.AgingCars(ctx, input.YearBefore, input.OdometerBelow)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]CarResponse, len(rows))
		for i, r := range rows {
			resp[i] = toCarResponse(r)
		}
		return &AgingCarsOutput{Body: toReportBody(resp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-top-serviced",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/top-serviced",
		Summary:     "Cars with the most service requests",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *TopServicedInput) (*TopServicedOutput, error) {
		rows, err := svc.TopServicedCars(ctx, input.K)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]CarServicesRow, len(rows))
		for i, r := range rows {
			resp[i] = CarServicesRow{CarResponse: toCarResponse(r.Car), Services: r.Services}
		}
		return &TopServicedOutput{Body: toReportBody(resp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-billing-ranking",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/billing-ranking",
		Summary:     "Customers by descending total bill",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, _ *struct{}) (*BillingRankingOutput, error) {
		rows, err := svc.BillingRanking(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]CustomerBillRow, len(rows))
		for i, r := range rows {
			resp[i] = CustomerBillRow{CustomerResponse: toCustomerResponse(r.Customer), Total: r.Total}
		}
		return &BillingRankingOutput{Body: toReportBody(resp)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return huma.Error404NotFound(notFound.Error())
	}

	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return huma.Error422UnprocessableEntity(invalid.Error())
	}

	var ambiguous *domain.AmbiguousMatchError
	if errors.As(err, &ambiguous) {
		return huma.Error409Conflict(ambiguous.Error())
	}

	var transition *domain.TransitionError
	if errors.As(err, &transition) {
		return huma.Error422UnprocessableEntity(transition.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
