package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subtrack/internal/core"
	applog "subtrack/internal/log"
)

// SQLiteRepository stores data in a single SQLite file.
type SQLiteRepository struct {
	db   *sql.DB
	opts options
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, opts: buildOptions(opts)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const subscriptionColumns = `id, name, description, price, currency, billing_cycle, next_billing_date,
	status, category_id, service_url, notes, auto_renew, shared_by, has_free_trial,
	free_trial_months, free_trial_start_date, paid_subscription_start_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		s                          core.Subscription
		cycle, status              string
		nextBill, trialStart, paid sql.NullString
		createdAt, updatedAt       int64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.Currency, &cycle, &nextBill,
		&status, &s.CategoryID, &s.ServiceURL, &s.Notes, &s.AutoRenew, &s.SharedBy, &s.HasFreeTrial,
		&s.FreeTrialMonths, &trialStart, &paid, &createdAt, &updatedAt)
	if err != nil {
		return core.Subscription{}, err
	}
	s.BillingCycle = core.BillingCycle(cycle)
	s.Status = core.Status(status)
	s.NextBillingDate = parseNullDate(nextBill)
	s.FreeTrialStartDate = parseNullDate(trialStart)
	s.PaidSubscriptionStartDate = parseNullDate(paid)
	s.CreatedAt = fromUnixNano(createdAt)
	s.UpdatedAt = fromUnixNano(updatedAt)
	return s, nil
}

// ListSubscriptions implements Repository.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, opts ListOptions) (SubscriptionPage, error) {
	opts = opts.normalize()

	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, opts.CategoryID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscriptions"+clause, args...).Scan(&total); err != nil {
		return SubscriptionPage{}, fmt.Errorf("count subscriptions: %w", err)
	}

	query := "SELECT " + subscriptionColumns + " FROM subscriptions" + clause +
		" ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.offset())...)
	if err != nil {
		return SubscriptionPage{}, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	items := make([]core.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return SubscriptionPage{}, fmt.Errorf("scan subscription: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return SubscriptionPage{}, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return SubscriptionPage{Items: items, Pagination: newPagination(opts, total)}, nil
}

// GetSubscription implements Repository.
func (r *SQLiteRepository) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", id)
	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return s, nil
}

// CreateSubscription implements Repository.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	now := r.opts.now()
	s.ID = r.opts.newID()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Description, s.Price, s.Currency, string(s.BillingCycle), nullDate(s.NextBillingDate),
		string(s.Status), s.CategoryID, s.ServiceURL, s.Notes, s.AutoRenew, s.SharedBy, s.HasFreeTrial,
		s.FreeTrialMonths, nullDate(s.FreeTrialStartDate), nullDate(s.PaidSubscriptionStartDate),
		s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano())
	if err != nil {
		return core.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}

	r.opts.logger.DebugContext(ctx, "Subscription saved to SQLite",
		applog.NewFields().WithSubscription(s.ID, s.Name).ToSlice()...)
	return s, nil
}

// UpdateSubscription implements Repository.
func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	s.UpdatedAt = r.opts.now()
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET
		name = ?, description = ?, price = ?, currency = ?, billing_cycle = ?, next_billing_date = ?,
		status = ?, category_id = ?, service_url = ?, notes = ?, auto_renew = ?, shared_by = ?,
		has_free_trial = ?, free_trial_months = ?, free_trial_start_date = ?,
		paid_subscription_start_date = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.Description, s.Price, s.Currency, string(s.BillingCycle), nullDate(s.NextBillingDate),
		string(s.Status), s.CategoryID, s.ServiceURL, s.Notes, s.AutoRenew, s.SharedBy,
		s.HasFreeTrial, s.FreeTrialMonths, nullDate(s.FreeTrialStartDate),
		nullDate(s.PaidSubscriptionStartDate), s.UpdatedAt.UnixNano(), s.ID)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription %s: %w", s.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		return core.Subscription{}, err
	}
	return r.GetSubscription(ctx, s.ID)
}

// DeleteSubscription implements Repository.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	return expectOneRow(res)
}

// ListCategories implements Repository.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return listCategories(ctx, r.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func listCategories(ctx context.Context, q querier) ([]core.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, description, color, icon, created_at, updated_at
		FROM categories ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := make([]core.Category, 0)
	for rows.Next() {
		var (
			c                    core.Category
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.CreatedAt = fromUnixNano(createdAt)
		c.UpdatedAt = fromUnixNano(updatedAt)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CreateCategory implements Repository.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	return r.insertCategory(ctx, r.db, c)
}

func (r *SQLiteRepository) insertCategory(ctx context.Context, q querier, c core.Category) (core.Category, error) {
	now := r.opts.now()
	c.ID = r.opts.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := q.ExecContext(ctx, `INSERT INTO categories (id, name, description, color, icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Color, c.Icon, c.CreatedAt.UnixNano(), c.UpdatedAt.UnixNano())
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// SeedDefaultCategories implements Repository.
func (r *SQLiteRepository) SeedDefaultCategories(ctx context.Context) ([]core.Category, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return nil, false, fmt.Errorf("count categories: %w", err)
	}

	seeded := false
	if count == 0 {
		for _, c := range defaultCategories {
			if _, err := r.insertCategory(ctx, tx, c); err != nil {
				return nil, false, err
			}
		}
		seeded = true
	}

	cats, err := listCategories(ctx, tx)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit seed: %w", err)
	}

	if seeded {
		r.opts.logger.InfoContext(ctx, "Seeded default categories", applog.FieldCount, len(cats))
	}
	return cats, seeded, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format("2006-01-02")
}

func parseNullDate(s sql.NullString) core.Date {
	if !s.Valid || s.String == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}
	}
	return d
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
