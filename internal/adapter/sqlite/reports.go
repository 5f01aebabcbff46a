package sqlite

import (
	"context"
	"fmt"

	"github.com/neomorfeo/shopfloor/internal/domain"
)

// The fixed read-only reports. Service-history queries aggregate over
// the union of open and closed requests, since closing moves a row from
// one set to the other.

func (r *ShopRepository) ClosedBelowBill(ctx context.Context, below int) ([]domain.ClosedRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rid, customer_id, car_vin, mid, date, odometer, comment, bill
		 FROM closed_request WHERE bill < ? ORDER BY rid`,
		below,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low bills: %w", err)
	}
	defer rows.Close()

	var out []domain.ClosedRequest
	for rows.Next() {
		cr, err := scanClosed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning closed row: %w", err)
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *ShopRepository) CustomersOwningMoreThan(ctx context.Context, n int) ([]domain.CustomerCars, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.fname, c.lname, c.phone, c.address, COUNT(o.car_vin) AS cars
		 FROM customer c JOIN owns o ON o.customer_id = c.id
		 GROUP BY c.id
		 HAVING COUNT(o.car_vin) > ?
		 ORDER BY c.id`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("listing fleet owners: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomerCars
	for rows.Next() {
		var cc domain.CustomerCars
		if err := rows.Scan(&cc.ID, &cc.FirstName, &cc.LastName, &cc.Phone, &cc.Address, &cc.Cars); err != nil {
			return nil, fmt.Errorf("scanning fleet owner row: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *ShopRepository) CarsOlderWithLowMileage(ctx context.Context, yearBefore, odometerBelow int) ([]domain.Car, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT c.vin, c.make, c.model, c.year
		 FROM car c JOIN (
			SELECT car_vin, odometer FROM service_request
			UNION ALL
			SELECT car_vin, odometer FROM closed_request
		 ) h ON h.car_vin = c.vin
		 WHERE c.year < ? AND h.odometer < ?
		 ORDER BY c.vin`,
		yearBefore, odometerBelow,
	)
	if err != nil {
		return nil, fmt.Errorf("listing aging cars: %w", err)
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

func (r *ShopRepository) TopServicedCars(ctx context.Context, k int) ([]domain.CarServices, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.vin, c.make, c.model, c.year, COUNT(*) AS services
		 FROM car c JOIN (
			SELECT car_vin FROM service_request
			UNION ALL
			SELECT car_vin FROM closed_request
		 ) h ON h.car_vin = c.vin
		 GROUP BY c.vin
		 ORDER BY services DESC, c.vin ASC
		 LIMIT ?`,
		k,
	)
	if err != nil {
		return nil, fmt.Errorf("listing top serviced cars: %w", err)
	}
	defer rows.Close()

	var out []domain.CarServices
	for rows.Next() {
		var cs domain.CarServices
		if err := rows.Scan(&cs.VIN, &cs.Make, &cs.Model, &cs.Year, &cs.Services); err != nil {
			return nil, fmt.Errorf("scanning top serviced row: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (r *ShopRepository) CustomersByTotalBill(ctx context.Context) ([]domain.CustomerBill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.fname, c.lname, c.phone, c.address, SUM(cr.bill) AS total
		 FROM customer c JOIN closed_request cr ON cr.customer_id = c.id
		 GROUP BY c.id
		 ORDER BY total DESC, c.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing billing ranking: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomerBill
	for rows.Next() {
		var cb domain.CustomerBill
		if err := rows.Scan(&cb.ID, &cb.FirstName, &cb.LastName, &cb.Phone, &cb.Address, &cb.Total); err != nil {
			return nil, fmt.Errorf("scanning billing row: %w", err)
		}
		out = append(out, cb)
	}
	return out, rows.Err()
}
