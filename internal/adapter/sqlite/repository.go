package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/neomorfeo/shopfloor/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// ShopRepository implements domain.Repository using SQLite.
type ShopRepository struct {
	db *sql.DB
}

// Compile-time check: ShopRepository implements domain.Repository.
var _ domain.Repository = (*ShopRepository)(nil)

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*ShopRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes allocate-then-insert transactions,
	// which is what keeps max+1 id allocation collision-free.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready repository. Use this when the *sql.DB has been
// pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*ShopRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &ShopRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *ShopRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *ShopRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

// withTx runs fn inside a transaction, rolling back on any error.
func (r *ShopRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// --- Customers ---

func (r *ShopRepository) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, domain.ClassCustomer)
		if err != nil {
			return err
		}
		c.ID = id

		_, err = tx.ExecContext(ctx,
			`INSERT INTO customer (id, fname, lname, phone, address)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.FirstName, c.LastName, c.Phone, c.Address,
		)
		if err != nil {
			return fmt.Errorf("inserting customer: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (r *ShopRepository) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, fname, lname, phone, address FROM customer WHERE id = ?`, id,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, &domain.NotFoundError{Entity: domain.ClassCustomer, Key: strconv.FormatInt(id, 10)}
		}
		return domain.Customer{}, fmt.Errorf("scanning customer: %w", err)
	}
	return c, nil
}

func (r *ShopRepository) FindCustomersByLastName(ctx context.Context, lastName string) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fname, lname, phone, address FROM customer WHERE lname = ? ORDER BY id`, lastName,
	)
	if err != nil {
		return nil, fmt.Errorf("finding customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Address); err != nil {
			return nil, fmt.Errorf("scanning customer row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Mechanics ---

func (r *ShopRepository) CreateMechanic(ctx context.Context, m domain.Mechanic) (domain.Mechanic, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, domain.ClassMechanic)
		if err != nil {
			return err
		}
		m.ID = id

		_, err = tx.ExecContext(ctx,
			`INSERT INTO mechanic (id, fname, lname, experience)
			 VALUES (?, ?, ?, ?)`,
			m.ID, m.FirstName, m.LastName, m.Experience,
		)
		if err != nil {
			return fmt.Errorf("inserting mechanic: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Mechanic{}, err
	}
	return m, nil
}

func (r *ShopRepository) GetMechanic(ctx context.Context, id int64) (domain.Mechanic, error) {
	var m domain.Mechanic
	err := r.db.QueryRowContext(ctx,
		`SELECT id, fname, lname, experience FROM mechanic WHERE id = ?`, id,
	).Scan(&m.ID, &m.FirstName, &m.LastName, &m.Experience)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Mechanic{}, &domain.NotFoundError{Entity: domain.ClassMechanic, Key: strconv.FormatInt(id, 10)}
		}
		return domain.Mechanic{}, fmt.Errorf("scanning mechanic: %w", err)
	}
	return m, nil
}

// --- Cars and ownership ---

func (r *ShopRepository) EnsureCar(ctx context.Context, c domain.Car) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO car (vin, make, model, year) VALUES (?, ?, ?, ?)
		 ON CONFLICT (vin) DO NOTHING`,
		c.VIN, c.Make, c.Model, c.Year,
	)
	if err != nil {
		return false, fmt.Errorf("inserting car: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *ShopRepository) GetCar(ctx context.Context, vin string) (domain.Car, error) {
	var c domain.Car
	err := r.db.QueryRowContext(ctx,
		`SELECT vin, make, model, year FROM car WHERE vin = ?`, vin,
	).Scan(&c.VIN, &c.Make, &c.Model, &c.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Car{}, &domain.NotFoundError{Entity: domain.ClassCar, Key: vin}
		}
		return domain.Car{}, fmt.Errorf("scanning car: %w", err)
	}
	return c, nil
}

func (r *ShopRepository) AddOwnership(ctx context.Context, customerID int64, vin string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO owns (customer_id, car_vin) VALUES (?, ?)
		 ON CONFLICT (customer_id, car_vin) DO NOTHING`,
		customerID, vin,
	)
	if err != nil {
		return fmt.Errorf("inserting ownership: %w", err)
	}
	return nil
}

func (r *ShopRepository) CarsOwnedBy(ctx context.Context, customerID int64) ([]domain.Car, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.vin, c.make, c.model, c.year
		 FROM car c JOIN owns o ON o.car_vin = c.vin
		 WHERE o.customer_id = ?
		 ORDER BY c.vin`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing owned cars: %w", err)
	}
	defer rows.Close()

	var out []domain.Car
	for rows.Next() {
		var c domain.Car
		if err := rows.Scan(&c.VIN, &c.Make, &c.Model, &c.Year); err != nil {
			return nil, fmt.Errorf("scanning car row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Service requests ---

func (r *ShopRepository) OpenRequest(ctx context.Context, req domain.ServiceRequest, car domain.Car) (domain.ServiceRequest, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM customer WHERE id = ?`, req.CustomerID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Entity: domain.ClassCustomer, Key: strconv.FormatInt(req.CustomerID, 10)}
		}
		if err != nil {
			return fmt.Errorf("checking customer: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO car (vin, make, model, year) VALUES (?, ?, ?, ?)
			 ON CONFLICT (vin) DO NOTHING`,
			car.VIN, car.Make, car.Model, car.Year,
		); err != nil {
			return fmt.Errorf("ensuring car: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owns (customer_id, car_vin) VALUES (?, ?)
			 ON CONFLICT (customer_id, car_vin) DO NOTHING`,
			req.CustomerID, req.CarVIN,
		); err != nil {
			return fmt.Errorf("ensuring ownership: %w", err)
		}

		rid, err := nextID(ctx, tx, domain.ClassRequest)
		if err != nil {
			return err
		}
		req.RID = rid

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_request (rid, customer_id, car_vin, date, odometer, complain)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			req.RID, req.CustomerID, req.CarVIN,
			req.OpenedAt.Format(timeFormat), req.Odometer, req.Complaint,
		); err != nil {
			return fmt.Errorf("inserting service request: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ServiceRequest{}, err
	}
	return req, nil
}

func (r *ShopRepository) GetOpenRequest(ctx context.Context, rid int64) (domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	var opened string

	err := r.db.QueryRowContext(ctx,
		`SELECT rid, customer_id, car_vin, date, odometer, complain
		 FROM service_request WHERE rid = ?`, rid,
	).Scan(&req.RID, &req.CustomerID, &req.CarVIN, &opened, &req.Odometer, &req.Complaint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ServiceRequest{}, &domain.NotFoundError{Entity: domain.ClassRequest, Key: strconv.FormatInt(rid, 10)}
		}
		return domain.ServiceRequest{}, fmt.Errorf("scanning request: %w", err)
	}

	req.OpenedAt, _ = time.Parse(timeFormat, opened)
	return req, nil
}

func (r *ShopRepository) ListOpenRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rid, customer_id, car_vin, date, odometer, complain
		 FROM service_request ORDER BY rid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing open requests: %w", err)
	}
	defer rows.Close()

	var out []domain.ServiceRequest
	for rows.Next() {
		var req domain.ServiceRequest
		var opened string
		if err := rows.Scan(&req.RID, &req.CustomerID, &req.CarVIN, &opened, &req.Odometer, &req.Complaint); err != nil {
			return nil, fmt.Errorf("scanning request row: %w", err)
		}
		req.OpenedAt, _ = time.Parse(timeFormat, opened)
		out = append(out, req)
	}
	return out, rows.Err()
}

// CloseRequest converts an open request into a closed record. The insert
// and the delete commit together: a reader never observes the rid in both
// sets, nor in neither.
func (r *ShopRepository) CloseRequest(ctx context.Context, cr domain.ClosedRequest) (domain.ClosedRequest, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		// Re-read the open row inside the transaction; it is the
		// authoritative source for the carried-forward columns.
		err := tx.QueryRowContext(ctx,
			`SELECT customer_id, car_vin, odometer FROM service_request WHERE rid = ?`, cr.RID,
		).Scan(&cr.CustomerID, &cr.CarVIN, &cr.Odometer)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Entity: domain.ClassRequest, Key: strconv.FormatInt(cr.RID, 10)}
		}
		if err != nil {
			return fmt.Errorf("reading open request: %w", err)
		}

		var one int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM mechanic WHERE id = ?`, cr.MechanicID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Entity: domain.ClassMechanic, Key: strconv.FormatInt(cr.MechanicID, 10)}
		}
		if err != nil {
			return fmt.Errorf("checking mechanic: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO closed_request (wid, rid, customer_id, car_vin, mid, date, odometer, comment, bill)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cr.RID, cr.RID, cr.CustomerID, cr.CarVIN, cr.MechanicID,
			cr.ClosedAt.Format(timeFormat), cr.Odometer, cr.Comment, cr.Bill,
		); err != nil {
			return fmt.Errorf("inserting closed request: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM service_request WHERE rid = ?`, cr.RID,
		)
		if err != nil {
			return fmt.Errorf("deleting open request: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("deleting open request: %d rows affected, want 1", n)
		}
		return nil
	})
	if err != nil {
		return domain.ClosedRequest{}, err
	}
	return cr, nil
}

func (r *ShopRepository) GetClosedRequest(ctx context.Context, rid int64) (domain.ClosedRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT rid, customer_id, car_vin, mid, date, odometer, comment, bill
		 FROM closed_request WHERE rid = ?`, rid,
	)
	cr, err := scanClosed(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ClosedRequest{}, &domain.NotFoundError{Entity: domain.ClassRequest, Key: strconv.FormatInt(rid, 10)}
		}
		return domain.ClosedRequest{}, fmt.Errorf("scanning closed request: %w", err)
	}
	return cr, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanClosed reads a closed_request row. The caller maps sql.ErrNoRows.
func scanClosed(s scanner) (domain.ClosedRequest, error) {
	var cr domain.ClosedRequest
	var closed string

	err := s.Scan(&cr.RID, &cr.CustomerID, &cr.CarVIN, &cr.MechanicID, &closed, &cr.Odometer, &cr.Comment, &cr.Bill)
	if err != nil {
		return domain.ClosedRequest{}, err
	}

	cr.ClosedAt, _ = time.Parse(timeFormat, closed)
	return cr, nil
}
