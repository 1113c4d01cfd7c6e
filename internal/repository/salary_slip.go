package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

// SalarySlipRecord is a persisted slip plus the extraction metadata it came with.
type SalarySlipRecord struct {
	ID             uuid.UUID         `json:"id"`
	FileID         string            `json:"fileId,omitempty"`
	SourceFileName string            `json:"sourceFileName,omitempty"`
	Slip           salary.SalarySlip `json:"slip"`
	Confidence     float64           `json:"confidence"`
	Method         string            `json:"method,omitempty"`
	Placeholder    bool              `json:"placeholder"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// ListFilter narrows List. Zero values mean no constraint.
type ListFilter struct {
	EmployeeID string
	From, To   string // inclusive ISO payment dates
	Limit      int
	Offset     int
}

type SalarySlipRepository interface {
	Create(ctx context.Context, rec *SalarySlipRecord) (*SalarySlipRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*SalarySlipRecord, error)
	List(ctx context.Context, f ListFilter) ([]*SalarySlipRecord, error)
}

type salarySlipRepo struct {
	store  *Store
	logger *slog.Logger
}

func NewSalarySlipRepository(store *Store, logger *slog.Logger) SalarySlipRepository {
	return &salarySlipRepo{store: store, logger: logger}
}

var slipColumns = []string{"id", "file_id", "source_file_name", "confidence", "method", "placeholder", "payload", "created_at"}

func (r *salarySlipRepo) Create(ctx context.Context, rec *SalarySlipRecord) (*SalarySlipRecord, error) {
	out := *rec
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(out.Slip)
	if err != nil {
		return nil, fmt.Errorf("encode slip: %w", err)
	}

	s := out.Slip
	q, args := r.store.builder().
		Insert(tableSalarySlips).
		Columns(
			"id", "file_id", "source_file_name", "employee_id", "employee_name", "company_name",
			"payment_date", "period_start", "period_end",
			"total_payment", "total_deductions", "net_payment",
			"confidence", "method", "placeholder", "payload", "created_at",
		).
		Values(
			out.ID, out.FileID, out.SourceFileName, s.EmployeeID, s.EmployeeName, s.CompanyName,
			s.PaymentDate, s.TargetPeriod.Start, s.TargetPeriod.End,
			s.Earnings.Total, s.Deductions.Total, s.NetPay,
			out.Confidence, out.Method, out.Placeholder, string(payload), out.CreatedAt,
		).
		Query()

	if err := r.store.drv.Exec(ctx, q, args, nil); err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("salary slip already stored", "employee_id", s.EmployeeID, "payment_date", s.PaymentDate)
			return nil, common.NewAppError(common.CodeDuplicate,
				fmt.Sprintf("slip for employee %s paid on %s already exists", s.EmployeeID, s.PaymentDate),
				common.ErrDuplicate)
		}
		r.logger.Error("failed to create salary slip", "employee_id", s.EmployeeID, "error", err)
		return nil, common.DatabaseError("create salary slip", err)
	}
	r.logger.Info("salary slip stored", "id", out.ID, "employee_id", s.EmployeeID, "payment_date", s.PaymentDate)
	return &out, nil
}

func (r *salarySlipRepo) Get(ctx context.Context, id uuid.UUID) (*SalarySlipRecord, error) {
	sel := r.store.builder().
		Select(slipColumns...).
		From(entsql.Table(tableSalarySlips)).
		Where(entsql.EQ("id", id))
	recs, err := r.query(ctx, sel)
	if err != nil {
		r.logger.Error("failed to get salary slip", "id", id, "error", err)
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.NewAppError(common.CodeNotFound, "salary slip "+id.String()+" not found", common.ErrNotFound)
	}
	return recs[0], nil
}

// List returns slips newest payment date first.
func (r *salarySlipRepo) List(ctx context.Context, f ListFilter) ([]*SalarySlipRecord, error) {
	sel := r.store.builder().
		Select(slipColumns...).
		From(entsql.Table(tableSalarySlips))

	var preds []*entsql.Predicate
	if f.EmployeeID != "" {
		preds = append(preds, entsql.EQ("employee_id", f.EmployeeID))
	}
	if f.From != "" {
		preds = append(preds, entsql.GTE("payment_date", f.From))
	}
	if f.To != "" {
		preds = append(preds, entsql.LTE("payment_date", f.To))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(entsql.Desc("payment_date"), entsql.Desc("created_at"))
	if f.Limit > 0 {
		sel = sel.Limit(f.Limit)
		// SQLite only accepts OFFSET after LIMIT
		if f.Offset > 0 {
			sel = sel.Offset(f.Offset)
		}
	}

	recs, err := r.query(ctx, sel)
	if err != nil {
		r.logger.Error("failed to list salary slips", "employee_id", f.EmployeeID, "error", err)
		return nil, err
	}
	return recs, nil
}

func (r *salarySlipRepo) query(ctx context.Context, sel *entsql.Selector) ([]*SalarySlipRecord, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.store.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, common.DatabaseError("query salary slips", err)
	}
	defer rows.Close()

	var out []*SalarySlipRecord
	for rows.Next() {
		var (
			rec     SalarySlipRecord
			payload []byte
			created timestamp
		)
		if err := rows.Scan(&rec.ID, &rec.FileID, &rec.SourceFileName, &rec.Confidence, &rec.Method, &rec.Placeholder, &payload, &created); err != nil {
			return nil, common.DatabaseError("scan salary slip", err)
		}
		if err := json.Unmarshal(payload, &rec.Slip); err != nil {
			return nil, fmt.Errorf("decode slip %s: %w", rec.ID, err)
		}
		rec.CreatedAt = created.Time
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("iterate salary slips", err)
	}
	return out, nil
}
