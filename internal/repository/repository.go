package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrAttemptNotFound = errors.New("checkout attempt not found")

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "PENDING"
	AttemptSucceeded AttemptStatus = "SUCCEEDED"
	AttemptFailed    AttemptStatus = "FAILED"
)

// Attempt records one order submission keyed by its idempotency key.
type Attempt struct {
	Key           string
	Owner         string
	Status        AttemptStatus
	OrderID       string
	PaymentMethod domain.PaymentMethod
	PaymentStatus domain.PaymentStatus
	BillAmount    decimal.Decimal
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository struct {
	db     *sql.DB
	driver string
}

type RepoInterface interface {
	GetAttempt(ctx context.Context, key string) (*Attempt, error)
	SaveAttempt(ctx context.Context, attempt *Attempt) error
	Close() error
	RunMigrations(string) error
}

// NewRepository opens the ledger database. driver is DriverSQLite or DriverPostgres.
func NewRepository(driver, dsn string) (*Repository, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows one writer; a single connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}
	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	default:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		r.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) GetAttempt(ctx context.Context, key string) (*Attempt, error) {
	query := `
		SELECT idempotency_key, owner, status, order_id, payment_method, payment_status,
		       bill_amount, error, created_at, updated_at
		FROM checkout_attempts
		WHERE idempotency_key = $1
	`

	a := &Attempt{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&a.Key,
		&a.Owner,
		&a.Status,
		&a.OrderID,
		&a.PaymentMethod,
		&a.PaymentStatus,
		&a.BillAmount,
		&a.Error,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout attempt: %w", err)
	}
	return a, nil
}

// SaveAttempt inserts the attempt or updates the row with the same key.
// CreatedAt of an existing row is kept.
func (r *Repository) SaveAttempt(ctx context.Context, a *Attempt) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	query := `
		INSERT INTO checkout_attempts (
			idempotency_key, owner, status, order_id, payment_method, payment_status,
			bill_amount, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			status = excluded.status,
			order_id = excluded.order_id,
			payment_method = excluded.payment_method,
			payment_status = excluded.payment_status,
			bill_amount = excluded.bill_amount,
			error = excluded.error,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		a.Key,
		a.Owner,
		string(a.Status),
		a.OrderID,
		string(a.PaymentMethod),
		string(a.PaymentStatus),
		a.BillAmount.String(),
		a.Error,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkout attempt: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
