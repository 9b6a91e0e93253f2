package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fjod/storefront/internal/domain"
)

func setupPostgresLedger(t *testing.T) *Ledger {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%d user=testuser password=testpass dbname=testdb sslmode=disable", host, port.Int())
	ledger, err := NewLedger(DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	require.NoError(t, ledger.RunMigrations())
	return ledger
}

func TestPostgresLedger_OutboxFlow(t *testing.T) {
	ledger := setupPostgresLedger(t)
	ctx := context.Background()

	attempt := &domain.CheckoutAttempt{
		ID:        uuid.NewString(),
		CartID:    "cart-1",
		AccountID: "acc-1",
		Outcome:   domain.OutcomeOrderSuccessful,
		OrderID:   "order-1",
		Lines:     []domain.OrderLine{{ProductID: "A", Quantity: 1}},
		Subtotal:  "12.50",
	}
	event := &OutboxEvent{
		AggregateID: "order-1",
		EventType:   domain.EventTypeOrderPlaced,
		Payload:     json.RawMessage(`{"order_id":"order-1"}`),
	}
	require.NoError(t, ledger.RecordAttempt(ctx, attempt, event))

	var subtotal string
	require.NoError(t, ledger.db.QueryRow(`SELECT subtotal FROM checkout_attempts WHERE id = $1`, attempt.ID).Scan(&subtotal))
	assert.Equal(t, "12.50", subtotal)

	events, err := ledger.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)

	require.NoError(t, ledger.MarkEventAsProcessed(ctx, events[0].ID))
	events, err = ledger.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
