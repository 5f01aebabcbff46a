package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/shopfloor/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx. Allocation runs
// against a transaction whenever a row insert consumes the id, so the
// read and the insert commit as one unit and two concurrent allocations
// for the same class never return the same value.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// allocQueries maps each allocator-managed entity class to the query
// computing its next id. Service request ids span the union of the open
// and closed sets: closing deletes the open row, and a rid must never
// be reused.
var allocQueries = map[domain.EntityClass]string{
	domain.ClassCustomer: `SELECT COALESCE(MAX(id), 0) + 1 FROM customer`,
	domain.ClassMechanic: `SELECT COALESCE(MAX(id), 0) + 1 FROM mechanic`,
	domain.ClassRequest: `SELECT COALESCE(MAX(rid), 0) + 1 FROM (
		SELECT rid FROM service_request
		UNION ALL
		SELECT rid FROM closed_request
	)`,
}

// nextID computes max+1 for the entity class against q. Cars use their
// VIN as a natural key and are not allocator-managed.
func nextID(ctx context.Context, q querier, class domain.EntityClass) (int64, error) {
	query, ok := allocQueries[class]
	if !ok {
		return 0, fmt.Errorf("no id allocation for entity class %q", class)
	}

	var id int64
	if err := q.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocating %s id: %w", class, err)
	}
	return id, nil
}

// NextID reports the id the allocator would hand out for the class at
// the instant of the read. Pure read with no reservation: mutating
// operations allocate inside their own transactions.
func (r *ShopRepository) NextID(ctx context.Context, class domain.EntityClass) (int64, error) {
	return nextID(ctx, r.db, class)
}
