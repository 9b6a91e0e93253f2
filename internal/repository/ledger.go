package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/fjod/storefront/internal/domain"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// OutboxEvent is an event waiting to be published to the message broker.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// Ledger records checkout attempts and the outbox of events they produce.
type Ledger struct {
	db     *sql.DB
	driver string
}

func NewLedger(driver, dsn string) (*Ledger, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer; an in-memory database lives on one connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	return &Ledger{db: db, driver: driver}, nil
}

func (l *Ledger) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations/"+l.driver)
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	var driver database.Driver
	switch l.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(l.db, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(l.db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, l.driver, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// RecordAttempt stores the attempt and, when event is non-nil, its outbox event in one transaction.
func (l *Ledger) RecordAttempt(ctx context.Context, a *domain.CheckoutAttempt, event *OutboxEvent) error {
	lines, err := json.Marshal(nonNilLines(a.Lines))
	if err != nil {
		return fmt.Errorf("marshal lines failed: %w", err)
	}
	shortfalls, err := json.Marshal(nonNilShortfalls(a.Shortfalls))
	if err != nil {
		return fmt.Errorf("marshal shortfalls failed: %w", err)
	}
	subtotal := a.Subtotal
	if subtotal == "" {
		subtotal = "0"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkout_attempts (id, cart_id, account_id, outcome, order_id, lines, shortfalls, subtotal, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.CartID, a.AccountID, string(a.Outcome), a.OrderID,
		string(lines), string(shortfalls), subtotal, a.Reason, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert checkout attempt: %w", err)
	}

	if event != nil {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO outbox_events (aggregate_id, event_type, payload)
			VALUES ($1, $2, $3)
			RETURNING id`,
			event.AggregateID, event.EventType, string(event.Payload),
		).Scan(&event.ID)
		if err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout attempt: %w", err)
	}
	return nil
}

func (l *Ledger) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var (
			e       OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

func (l *Ledger) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event %d as processed: %w", id, err)
	}
	return nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func nonNilLines(lines []domain.OrderLine) []domain.OrderLine {
	if lines == nil {
		return []domain.OrderLine{}
	}
	return lines
}

func nonNilShortfalls(s []domain.Shortfall) []domain.Shortfall {
	if s == nil {
		return []domain.Shortfall{}
	}
	return s
}
