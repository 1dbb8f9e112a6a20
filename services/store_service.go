package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"

	"gate-validator/internal/status"
	"gate-validator/models"
	"gate-validator/monitoring"
)

// TicketStore is the authoritative ticket database. The device only
// reads today's paid tickets and narrows its writes to the used-state
// fields of rows it already holds a copy of.
type TicketStore interface {
	FetchDayTickets(ctx context.Context, date string) ([]models.Ticket, error)
	MarkUsed(ctx context.Context, ticket models.Ticket) error
	Ping(ctx context.Context) error
}

// PostgresStore reaches the platform's ticket database over the
// network. Every call carries a bounded timeout; a timeout is handled
// like any other store failure.
type PostgresStore struct {
	db      *dbx.DB
	timeout time.Duration
}

func NewPostgresStore(dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := dbx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &PostgresStore{db: db, timeout: timeout}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type ticketRow struct {
	ID            string          `db:"id"`
	TicketNumber  string          `db:"ticket_number"`
	QRCode        string          `db:"qr_code"`
	Status        string          `db:"status"`
	UsedAt        sql.NullTime    `db:"used_at"`
	ValidatedBy   sql.NullString  `db:"validated_by"`
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
	EventName     string          `db:"event_name"`
	SessionDate   string          `db:"session_date"`
	TicketType    string          `db:"ticket_type"`
	Price         decimal.Decimal `db:"price"`
}

func rowToTicket(r ticketRow) models.Ticket {
	t := models.Ticket{
		ID:            r.ID,
		TicketNumber:  r.TicketNumber,
		QRCode:        r.QRCode,
		Status:        r.Status,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		EventName:     r.EventName,
		SessionDate:   r.SessionDate,
		TicketType:    r.TicketType,
		Price:         r.Price,
	}
	if r.UsedAt.Valid {
		usedAt := r.UsedAt.Time
		t.UsedAt = &usedAt
	}
	if r.ValidatedBy.Valid {
		t.ValidatedBy = r.ValidatedBy.String
	}
	return t
}

// FetchDayTickets returns every ticket for the given session date whose
// parent order is paid, joined to its display fields.
func (s *PostgresStore) FetchDayTickets(ctx context.Context, date string) ([]models.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []ticketRow
	err := s.db.Select(
		"t.id", "t.ticket_number", "t.qr_code", "t.status", "t.used_at", "t.validated_by",
		"o.customer_name", "o.customer_email",
		"e.name AS event_name",
		"to_char(sess.session_date, 'YYYY-MM-DD') AS session_date",
		"tt.name AS ticket_type", "tt.price",
	).
		From("tickets t").
		InnerJoin("order_items oi", dbx.NewExp("oi.id = t.order_item_id")).
		InnerJoin("orders o", dbx.NewExp("o.id = oi.order_id")).
		InnerJoin("sessions sess", dbx.NewExp("sess.id = t.session_id")).
		InnerJoin("events e", dbx.NewExp("e.id = sess.event_id")).
		InnerJoin("ticket_types tt", dbx.NewExp("tt.id = t.ticket_type_id")).
		Where(dbx.And(
			dbx.NewExp("sess.session_date = {:day}", dbx.Params{"day": date}),
			dbx.HashExp{"o.payment_status": "paid"},
		)).
		OrderBy("t.ticket_number").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("store: fetch tickets for %s: %w", date, err)
	}

	tickets := make([]models.Ticket, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, rowToTicket(r))
	}
	return tickets, nil
}

// MarkUsed writes the used-state fields of one ticket back to the
// store. The update is keyed by ID only; no other columns are touched.
func (s *PostgresStore) MarkUsed(ctx context.Context, ticket models.Ticket) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.db.Update("tickets", dbx.Params{
		"status":       models.StatusUsed,
		"used_at":      ticket.UsedAt,
		"validated_by": ticket.ValidatedBy,
	}, dbx.HashExp{"id": ticket.ID}).WithContext(ctx).Execute()
	monitoring.ObserveStoreWrite(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("store: mark ticket %s used: %w", ticket.TicketNumber, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		// The row is gone server-side; the next pull reconciles.
		log.Printf("store: ticket %s no longer present, skipping write-back", ticket.TicketNumber)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.DB().PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", status.ErrStoreUnavailable, err)
	}
	return nil
}
