package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistence port for the transaction ledger.
type Repository interface {
	Create(ctx context.Context, trx Transaction) (int64, error)
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context) ([]Transaction, error)
	ListPending(ctx context.Context) ([]Transaction, error)
	MarkPaid(ctx context.Context, id int64, cashIn, change *int64) error
	UpdateMethod(ctx context.Context, id int64, method PaymentMethod) error
	Delete(ctx context.Context, id int64) error
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
	PaidSummary(ctx context.Context) (PaidSummary, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const trxColumns = `id, created_at, items_str, total_price, cash_in, change_due, payment_method, status`

func (r *pgRepository) Create(ctx context.Context, trx Transaction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (items_str, total_price, cash_in, change_due, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		JoinItems(trx.Items), trx.Total, trx.CashIn, trx.Change, string(trx.Method), string(trx.Status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ledger: create transaction: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+trxColumns+` FROM transactions WHERE id = $1`, id)
	trx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, fmt.Errorf("ledger: get transaction: %w", err)
	}
	return trx, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Transaction, error) {
	return r.queryMany(ctx, `SELECT `+trxColumns+` FROM transactions ORDER BY created_at DESC`)
}

func (r *pgRepository) ListPending(ctx context.Context) ([]Transaction, error) {
	return r.queryMany(ctx, `SELECT `+trxColumns+` FROM transactions WHERE status = 'PENDING' ORDER BY created_at DESC`)
}

// MarkPaid performs the at-most-once settlement transition: the status
// guard sits inside the UPDATE predicate, so of two concurrent calls for
// the same id exactly one succeeds and the other sees ErrNotPending.
func (r *pgRepository) MarkPaid(ctx context.Context, id int64, cashIn, change *int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions
		 SET status = 'PAID', cash_in = COALESCE($2, cash_in), change_due = COALESCE($3, change_due)
		 WHERE id = $1 AND status = 'PENDING'`,
		id, cashIn, change,
	)
	if err != nil {
		return fmt.Errorf("ledger: mark paid: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("ledger: mark paid recheck: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNotPending
}

func (r *pgRepository) UpdateMethod(ctx context.Context, id int64, method PaymentMethod) error {
	tag, err := r.pool.Exec(ctx, `UPDATE transactions SET payment_method = $2 WHERE id = $1`, id, string(method))
	if err != nil {
		return fmt.Errorf("ledger: update method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ledger: delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE status = 'PENDING' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ledger: delete stale pending: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgRepository) PaidSummary(ctx context.Context) (PaidSummary, error) {
	var summary PaidSummary
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_price) FILTER (WHERE status = 'PAID'), 0), COUNT(*) FROM transactions`,
	).Scan(&summary.Omzet, &summary.Count)
	if err != nil {
		return PaidSummary{}, fmt.Errorf("ledger: paid summary: %w", err)
	}
	return summary, nil
}

func (r *pgRepository) queryMany(ctx context.Context, query string) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ledger: list transactions: %w", err)
	}
	defer rows.Close()

	var result []Transaction
	for rows.Next() {
		trx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan transaction: %w", err)
		}
		result = append(result, trx)
	}
	return result, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		trx    Transaction
		items  string
		method string
		status string
	)
	if err := row.Scan(&trx.ID, &trx.CreatedAt, &items, &trx.Total, &trx.CashIn, &trx.Change, &method, &status); err != nil {
		return Transaction{}, err
	}
	trx.Items = SplitItems(items)
	trx.Method = PaymentMethod(method)
	trx.Status = Status(status)
	return trx, nil
}
