package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/shopfloor/internal/adapter/fsm"
	adapter "github.com/neomorfeo/shopfloor/internal/adapter/http"
	"github.com/neomorfeo/shopfloor/internal/adapter/sqlite"
	"github.com/neomorfeo/shopfloor/internal/app"
	"github.com/neomorfeo/shopfloor/internal/domain"
)

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.RequestEvent) error {
	return nil
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := app.NewShopService(repo, &noopPublisher{}, fsm.New())

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("shopfloor", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

// mustCreateCustomer creates a customer via the API and returns its response.
func mustCreateCustomer(t *testing.T, srv *httptest.Server, lastName string) adapter.CustomerResponse {
	t.Helper()

	body := fmt.Sprintf(`{"first_name":"Jane","last_name":%q,"phone":"555-123-4567","address":"12 Main St"}`, lastName)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/customers", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create customer: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var customer adapter.CustomerResponse
	if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
		t.Fatalf("decode customer: %v", err)
	}
	return customer
}

// mustCreateMechanic creates a mechanic via the API.
func mustCreateMechanic(t *testing.T, srv *httptest.Server) adapter.MechanicResponse {
	t.Helper()

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mechanics",
		`{"first_name":"Bob","last_name":"Wrench","experience":12}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create mechanic: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var mech adapter.MechanicResponse
	if err := json.NewDecoder(resp.Body).Decode(&mech); err != nil {
		t.Fatalf("decode mechanic: %v", err)
	}
	return mech
}

// mustOpenRequest opens a request for the customer with a new car.
func mustOpenRequest(t *testing.T, srv *httptest.Server, customerID int64, vin string) adapter.RequestResponse {
	t.Helper()

	body := fmt.Sprintf(
		`{"customer_id":%d,"car":{"vin":%q,"make":"Honda","model":"Accord","year":2003},"odometer":42000,"complaint":"brakes squeal"}`,
		customerID, vin)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/requests", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open request: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var req adapter.RequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return req
}

// --- Customers ---

func TestCreateCustomer(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")

	if customer.ID != 1 {
		t.Errorf("ID = %d, want 1", customer.ID)
	}
	if customer.LastName != "Smith" {
		t.Errorf("LastName = %q, want %q", customer.LastName, "Smith")
	}
}

func TestCreateCustomer_InvalidPhone(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/customers",
		`{"first_name":"Jane","last_name":"Smith","phone":"555123456789","address":"12 Main St"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestGetCustomer(t *testing.T) {
	srv := newTestServer(t)
	created := mustCreateCustomer(t, srv, "Smith")

	resp := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/v1/customers/%d", srv.URL, created.ID), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got adapter.CustomerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/customers/999", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Mechanics ---

func TestCreateMechanic(t *testing.T) {
	srv := newTestServer(t)
	mech := mustCreateMechanic(t, srv)

	if mech.ID != 1 {
		t.Errorf("ID = %d, want 1", mech.ID)
	}
	if mech.Experience != 12 {
		t.Errorf("Experience = %d, want 12", mech.Experience)
	}
}

func TestGetMechanic_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/mechanics/999", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Cars ---

func TestCreateCar_Idempotent(t *testing.T) {
	srv := newTestServer(t)

	body := `{"vin":"1HGCM82633A12345","make":"Honda","model":"Accord","year":2003}`

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/cars", body)
	var first struct {
		adapter.CarResponse
		Created bool `json:"created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	if !first.Created {
		t.Error("first create: created = false, want true")
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/cars", body)
	var second struct {
		adapter.CarResponse
		Created bool `json:"created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	if second.Created {
		t.Error("second create: created = true, want false")
	}
	if second.VIN != first.VIN {
		t.Errorf("VIN = %q, want %q", second.VIN, first.VIN)
	}
}

func TestCreateCar_BadVIN(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/cars",
		`{"vin":"SHORT","make":"Honda","model":"Accord","year":2003}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
}

// --- Requests ---

func TestOpenRequest(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")

	req := mustOpenRequest(t, srv, customer.ID, "1HGCM82633A12345")

	if req.RID != 1 {
		t.Errorf("RID = %d, want 1", req.RID)
	}
	if req.CustomerID != customer.ID {
		t.Errorf("CustomerID = %d, want %d", req.CustomerID, customer.ID)
	}
	if req.OpenedAt == "" {
		t.Error("OpenedAt should not be empty")
	}
}

func TestOpenRequest_AmbiguousLastName(t *testing.T) {
	srv := newTestServer(t)
	mustCreateCustomer(t, srv, "Smith")
	mustCreateCustomer(t, srv, "Smith")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/requests",
		`{"last_name":"Smith","car":{"vin":"1HGCM82633A12345","make":"Honda","model":"Accord","year":2003},"odometer":42000}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestOpenRequest_UnknownCustomer(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/requests",
		`{"customer_id":999,"car":{"vin":"1HGCM82633A12345","make":"Honda","model":"Accord","year":2003},"odometer":42000}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestListRequests(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")
	mustOpenRequest(t, srv, customer.ID, "1HGCM82633A12345")
	mustOpenRequest(t, srv, customer.ID, "2FTRX18W1XCA0001")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/requests", "")
	defer resp.Body.Close()

	var reqs []adapter.RequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&reqs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	if reqs[0].RID != 1 || reqs[1].RID != 2 {
		t.Errorf("rids = [%d, %d], want [1, 2]", reqs[0].RID, reqs[1].RID)
	}
}

func TestCloseRequest(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")
	mech := mustCreateMechanic(t, srv)
	req := mustOpenRequest(t, srv, customer.ID, "1HGCM82633A12345")

	body := fmt.Sprintf(`{"mechanic_id":%d,"comment":"replaced pads","bill":150}`, mech.ID)
	resp := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/v1/requests/%d/close", srv.URL, req.RID), body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var closed adapter.ClosedResponse
	if err := json.NewDecoder(resp.Body).Decode(&closed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if closed.RID != req.RID {
		t.Errorf("RID = %d, want %d", closed.RID, req.RID)
	}
	if closed.Bill != 150 {
		t.Errorf("Bill = %d, want 150", closed.Bill)
	}
	if closed.CustomerID != customer.ID {
		t.Errorf("CustomerID = %d, want %d", closed.CustomerID, customer.ID)
	}

	// The closed request left the open set.
	listResp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/requests", "")
	defer listResp.Body.Close()
	var open []adapter.RequestResponse
	if err := json.NewDecoder(listResp.Body).Decode(&open); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open set has %d requests after close, want 0", len(open))
	}
}

func TestCloseRequest_UnknownRID(t *testing.T) {
	srv := newTestServer(t)
	mech := mustCreateMechanic(t, srv)

	body := fmt.Sprintf(`{"mechanic_id":%d,"comment":"done","bill":50}`, mech.ID)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/requests/999/close", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestCloseRequest_Twice(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")
	mech := mustCreateMechanic(t, srv)
	req := mustOpenRequest(t, srv, customer.ID, "1HGCM82633A12345")

	body := fmt.Sprintf(`{"mechanic_id":%d,"comment":"done","bill":50}`, mech.ID)
	url := fmt.Sprintf("%s/api/v1/requests/%d/close", srv.URL, req.RID)

	resp := doRequest(t, http.MethodPost, url, body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first close: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp = doRequest(t, http.MethodPost, url, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second close: status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- Reports ---

func TestReportLowBills(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")
	mech := mustCreateMechanic(t, srv)

	for i, bill := range []int{75, 150} {
		req := mustOpenRequest(t, srv, customer.ID, fmt.Sprintf("VIN%013d", i))
		body := fmt.Sprintf(`{"mechanic_id":%d,"comment":"done","bill":%d}`, mech.ID, bill)
		resp := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/v1/requests/%d/close", srv.URL, req.RID), body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("close: status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/reports/low-bills?below=100", "")
	defer resp.Body.Close()

	var report struct {
		Rows  []adapter.ClosedResponse `json:"rows"`
		Count int                      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Count != 1 {
		t.Fatalf("Count = %d, want 1", report.Count)
	}
	if report.Rows[0].Bill != 75 {
		t.Errorf("Bill = %d, want 75", report.Rows[0].Bill)
	}
}

func TestReportTopServiced(t *testing.T) {
	srv := newTestServer(t)
	customer := mustCreateCustomer(t, srv, "Smith")

	// Two requests on car A, one on car B.
	mustOpenRequest(t, srv, customer.ID, "AAAAAAAAAAAAAAA1")
	mustOpenRequest(t, srv, customer.ID, "AAAAAAAAAAAAAAA1")
	mustOpenRequest(t, srv, customer.ID, "BBBBBBBBBBBBBBB1")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/reports/top-serviced?k=1", "")
	defer resp.Body.Close()

	var report struct {
		Rows  []adapter.CarServicesRow `json:"rows"`
		Count int                      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Count != 1 {
		t.Fatalf("Count = %d, want 1", report.Count)
	}
	if report.Rows[0].VIN != "AAAAAAAAAAAAAAA1" || report.Rows[0].Services != 2 {
		t.Errorf("top = %q with %d services, want %q with 2", report.Rows[0].VIN, report.Rows[0].Services, "AAAAAAAAAAAAAAA1")
	}
}

func TestReportBillingRanking_Empty(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/reports/billing-ranking", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var report struct {
		Rows  []adapter.CustomerBillRow `json:"rows"`
		Count int                       `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Count != 0 {
		t.Errorf("Count = %d, want 0", report.Count)
	}
	if report.Rows == nil {
		t.Error("Rows should be an empty array, not null")
	}
}
