package submit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// submissionRow is the persisted shape of a SubmissionRecord. The full record
// is kept as JSON alongside the queryable columns; the unique correlation id
// makes re-submission after a crash append-once.
type submissionRow struct {
	bun.BaseModel `bun:"table:submission_records,alias:sr"`

	ID            int64     `bun:",pk,autoincrement"`
	OrderID       string    `bun:"order_id,notnull"`
	SessionID     string    `bun:"session_id,notnull"`
	CorrelationID string    `bun:"correlation_id,notnull,unique"`
	FinalStatus   string    `bun:"final_status,notnull"`
	GrandTotal    string    `bun:"grand_total,notnull"`
	Payload       []byte    `bun:"payload,type:jsonb,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// BunStore persists submission records in Postgres through bun.
type BunStore struct {
	db *bun.DB
}

var _ contractx.SubmissionStore = (*BunStore)(nil)

// OpenPostgres dials Postgres and returns a store backed by it.
func OpenPostgres(cfg PostgresConfig) (*BunStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return NewBunStore(bun.NewDB(sqldb, pgdialect.New())), nil
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// EnsureSchema creates the records table and the order-number sequence if
// they do not exist yet.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*submissionRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create submission_records table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE SEQUENCE IF NOT EXISTS order_number_seq"); err != nil {
		return fmt.Errorf("create order_number_seq: %w", err)
	}
	return nil
}

func (s *BunStore) Append(ctx context.Context, rec *contractx.SubmissionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal submission record: %w", err)
	}
	row := &submissionRow{
		OrderID:       rec.OrderID,
		SessionID:     rec.SessionID,
		CorrelationID: rec.CorrelationID,
		FinalStatus:   string(rec.FinalStatus),
		GrandTotal:    rec.GrandTotal.StringFixed(2),
		Payload:       payload,
		CreatedAt:     rec.CreatedAt,
	}
	// The insert itself is the atomic append; the unique correlation id
	// rejects a duplicate row instead of silently double-logging.
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("append submission record: %w", err)
	}
	return nil
}

func (s *BunStore) ByCorrelationID(ctx context.Context, correlationID string) (*contractx.SubmissionRecord, error) {
	row := new(submissionRow)
	err := s.db.NewSelect().
		Model(row).
		Where("correlation_id = ?", correlationID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, correlationID)
		}
		return nil, fmt.Errorf("load submission record: %w", err)
	}

	var rec contractx.SubmissionRecord
	if err := json.Unmarshal(row.Payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal submission record: %w", err)
	}
	return &rec, nil
}

// NextSequence reserves an order number from the database sequence. nextval
// is atomic across connections, so concurrent submissions get distinct
// numbers.
func (s *BunStore) NextSequence(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.NewRaw("SELECT nextval('order_number_seq')").Scan(ctx, &n); err != nil {
		return 0, fmt.Errorf("reserve order number: %w", err)
	}
	return n, nil
}
