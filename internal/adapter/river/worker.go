package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// RequestWorker processes lifecycle event jobs from the River queue.
// For now it logs the event; future versions will dispatch to customer
// notifications or an invoicing system.
type RequestWorker struct {
	river.WorkerDefaults[RequestJobArgs]
}

// Work processes a single lifecycle event job.
func (w *RequestWorker) Work(ctx context.Context, job *river.Job[RequestJobArgs]) error {
	slog.InfoContext(ctx, "processing request event",
		"event", job.Args.Event,
		"rid", job.Args.RID,
		"customer_id", job.Args.CustomerID,
		"car_vin", job.Args.CarVIN,
		"mechanic_id", job.Args.MechanicID,
		"bill", job.Args.Bill,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
