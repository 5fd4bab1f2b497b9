// Package storage persists betslips and the outgoing message queue in
// PostgreSQL and caches team rates in Redis.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// Postgres holds the database handle for slips and scheduled messages.
type Postgres struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPostgres(dsn string, log *slog.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &Postgres{db: db, log: log}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("postgres storage initialized")
	return s, nil
}

func (s *Postgres) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS betslips (
		id BIGSERIAL PRIMARY KEY,
		code VARCHAR(8) NOT NULL UNIQUE,
		format VARCHAR(16) NOT NULL,
		event_date DATE NOT NULL,
		total DECIMAL(10, 2) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'OPEN',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS selections (
		id BIGSERIAL PRIMARY KEY,
		slip_id BIGINT NOT NULL REFERENCES betslips(id) ON DELETE CASCADE,
		fixture_id BIGINT NOT NULL,
		league VARCHAR(200) NOT NULL DEFAULT '',
		home VARCHAR(200) NOT NULL,
		away VARCHAR(200) NOT NULL,
		kickoff TIMESTAMPTZ NOT NULL,
		market VARCHAR(32) NOT NULL,
		price DECIMAL(10, 2) NOT NULL,
		probability DECIMAL(6, 4) NOT NULL DEFAULT 0,
		result VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		goals_home INT NOT NULL DEFAULT 0,
		goals_away INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scheduled_messages (
		id UUID PRIMARY KEY,
		short_id BIGSERIAL UNIQUE,
		kind VARCHAR(16) NOT NULL,
		body TEXT NOT NULL,
		slip_id BIGINT REFERENCES betslips(id) ON DELETE SET NULL,
		send_at TIMESTAMPTZ NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'QUEUED',
		attempts INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_betslips_status ON betslips(status);
	CREATE INDEX IF NOT EXISTS idx_betslips_event_date ON betslips(event_date);
	CREATE INDEX IF NOT EXISTS idx_selections_slip_id ON selections(slip_id);
	CREATE INDEX IF NOT EXISTS idx_selections_fixture_id ON selections(fixture_id);
	CREATE INDEX IF NOT EXISTS idx_scheduled_messages_due ON scheduled_messages(status, send_at);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

// Ping is the health probe.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// slipInsertAttempts bounds code regeneration on duplicate-code inserts.
const slipInsertAttempts = 3

// CreateSlip inserts a slip and its legs in one transaction and fills
// in the generated ids. A generated code that collides with an existing
// slip is replaced and the insert retried.
func (s *Postgres) CreateSlip(ctx context.Context, slip *models.Slip) error {
	for attempt := 1; ; attempt++ {
		err := s.insertSlip(ctx, slip)
		if err == nil {
			return nil
		}
		if attempt < slipInsertAttempts && isCodeCollision(err) {
			s.log.Warn("slip code collision, regenerating", "code", slip.Code)
			slip.Code = models.NewSlipCode()
			continue
		}
		return err
	}
}

// isCodeCollision reports whether an insert failed on the betslips
// code uniqueness constraint.
func isCodeCollision(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) &&
		pqErr.Code == "23505" &&
		strings.Contains(pqErr.Constraint, "code")
}

func (s *Postgres) insertSlip(ctx context.Context, slip *models.Slip) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO betslips (code, format, event_date, total, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		slip.Code, slip.Format, slip.EventDate, slip.Total, slip.Status,
	).Scan(&slip.ID, &slip.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert betslip: %w", err)
	}

	for i := range slip.Legs {
		leg := &slip.Legs[i]
		leg.SlipID = slip.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO selections (slip_id, fixture_id, league, home, away, kickoff, market, price, probability, result)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			leg.SlipID, leg.FixtureID, leg.League, leg.Home, leg.Away,
			leg.Kickoff, leg.Market, leg.Price, leg.Probability, leg.Result,
		).Scan(&leg.ID)
		if err != nil {
			return fmt.Errorf("insert selection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slip: %w", err)
	}
	return nil
}

// OpenSlips returns all OPEN slips with their legs.
func (s *Postgres) OpenSlips(ctx context.Context) ([]*models.Slip, error) {
	return s.querySlips(ctx, `status = 'OPEN'`)
}

// SlipsByDate returns all slips planned for the given event date.
func (s *Postgres) SlipsByDate(ctx context.Context, date string) ([]*models.Slip, error) {
	return s.querySlips(ctx, `event_date = $1`, date)
}

func (s *Postgres) querySlips(ctx context.Context, where string, args ...any) ([]*models.Slip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, format, event_date, total, status, created_at
		 FROM betslips WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query betslips: %w", err)
	}
	defer rows.Close()

	var slips []*models.Slip
	byID := make(map[int64]*models.Slip)
	var ids []int64
	for rows.Next() {
		var slip models.Slip
		if err := rows.Scan(&slip.ID, &slip.Code, &slip.Format, &slip.EventDate, &slip.Total, &slip.Status, &slip.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan betslip: %w", err)
		}
		slips = append(slips, &slip)
		byID[slip.ID] = &slip
		ids = append(ids, slip.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(slips) == 0 {
		return nil, nil
	}

	legRows, err := s.db.QueryContext(ctx,
		`SELECT id, slip_id, fixture_id, league, home, away, kickoff, market, price, probability, result, goals_home, goals_away
		 FROM selections WHERE slip_id = ANY($1) ORDER BY kickoff, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query selections: %w", err)
	}
	defer legRows.Close()

	for legRows.Next() {
		var leg models.Leg
		if err := legRows.Scan(&leg.ID, &leg.SlipID, &leg.FixtureID, &leg.League, &leg.Home, &leg.Away,
			&leg.Kickoff, &leg.Market, &leg.Price, &leg.Probability, &leg.Result, &leg.GoalsHome, &leg.GoalsAway); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		if slip, ok := byID[leg.SlipID]; ok {
			slip.Legs = append(slip.Legs, leg)
		}
	}
	return slips, legRows.Err()
}

// UpdateLegResult settles one leg. A leg already settled is left alone,
// so re-delivered live state cannot flip a stored result.
func (s *Postgres) UpdateLegResult(ctx context.Context, legID int64, result models.Result, gh, ga int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE selections SET result = $2, goals_home = $3, goals_away = $4
		 WHERE id = $1 AND result = 'PENDING'`,
		legID, result, gh, ga)
	if err != nil {
		return fmt.Errorf("update leg %d: %w", legID, err)
	}
	return nil
}

// RecalcSlipStatus recomputes slip status from its stored legs. One
// lost leg closes the slip immediately; a win needs every leg settled.
// Terminal statuses never move.
func (s *Postgres) RecalcSlipStatus(ctx context.Context, slipID int64) (models.SlipStatus, error) {
	var status models.SlipStatus
	err := s.db.QueryRowContext(ctx,
		`UPDATE betslips SET status = CASE
			WHEN EXISTS (SELECT 1 FROM selections WHERE slip_id = $1 AND result = 'LOST') THEN 'LOST'
			WHEN NOT EXISTS (SELECT 1 FROM selections WHERE slip_id = $1 AND result = 'PENDING') THEN 'WON'
			ELSE 'OPEN'
		 END
		 WHERE id = $1 AND status = 'OPEN'
		 RETURNING status`, slipID).Scan(&status)
	if err == sql.ErrNoRows {
		err = s.db.QueryRowContext(ctx,
			`SELECT status FROM betslips WHERE id = $1`, slipID).Scan(&status)
	}
	if err != nil {
		return "", fmt.Errorf("recalc slip %d: %w", slipID, err)
	}
	return status, nil
}

// CancelSlipByCode cancels an OPEN slip and returns its id. sql.ErrNoRows
// means no open slip carries that code.
func (s *Postgres) CancelSlipByCode(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE betslips SET status = 'CANCELLED'
		 WHERE code = $1 AND status = 'OPEN'
		 RETURNING id`, code).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CancelSlipsByDate cancels every OPEN slip of the given event date and
// returns their ids.
func (s *Postgres) CancelSlipsByDate(ctx context.Context, date string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE betslips SET status = 'CANCELLED'
		 WHERE event_date = $1 AND status = 'OPEN'
		 RETURNING id`, date)
	if err != nil {
		return nil, fmt.Errorf("cancel slips for %s: %w", date, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SlipCodesForFixture returns the codes of open slips containing the
// fixture, for the operator's reverse lookup.
func (s *Postgres) SlipCodesForFixture(ctx context.Context, fixtureID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT b.code FROM betslips b
		 JOIN selections l ON l.slip_id = b.id
		 WHERE l.fixture_id = $1 AND b.status = 'OPEN'
		 ORDER BY b.code`, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("slips for fixture %d: %w", fixtureID, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Enqueue stores a message for later delivery and fills in its short id.
func (s *Postgres) Enqueue(ctx context.Context, item *models.QueueItem) error {
	var slipID any
	if item.SlipID != 0 {
		slipID = item.SlipID
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO scheduled_messages (id, kind, body, slip_id, send_at, status, attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING short_id, created_at`,
		item.ID, item.Kind, item.Body, slipID, item.SendAt, item.Status, item.Attempts,
	).Scan(&item.ShortID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// DueNow returns queued messages whose send time has passed, oldest first.
func (s *Postgres) DueNow(ctx context.Context, now time.Time) ([]*models.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, short_id, kind, body, COALESCE(slip_id, 0), send_at, status, attempts, created_at
		 FROM scheduled_messages
		 WHERE status = 'QUEUED' AND send_at <= $1
		 ORDER BY send_at, short_id`, now)
	if err != nil {
		return nil, fmt.Errorf("query due messages: %w", err)
	}
	defer rows.Close()

	var items []*models.QueueItem
	for rows.Next() {
		var it models.QueueItem
		if err := rows.Scan(&it.ID, &it.ShortID, &it.Kind, &it.Body, &it.SlipID,
			&it.SendAt, &it.Status, &it.Attempts, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// QueuedByDate lists still-queued messages created for slips of the
// given event date, plus undated text messages queued that day.
func (s *Postgres) QueuedByDate(ctx context.Context, date string) ([]*models.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.short_id, m.kind, m.body, COALESCE(m.slip_id, 0), m.send_at, m.status, m.attempts, m.created_at
		 FROM scheduled_messages m
		 LEFT JOIN betslips b ON b.id = m.slip_id
		 WHERE m.status = 'QUEUED' AND (b.event_date = $1 OR (m.slip_id IS NULL AND m.created_at::date = $1))
		 ORDER BY m.send_at, m.short_id`, date)
	if err != nil {
		return nil, fmt.Errorf("query queued messages: %w", err)
	}
	defer rows.Close()

	var items []*models.QueueItem
	for rows.Next() {
		var it models.QueueItem
		if err := rows.Scan(&it.ID, &it.ShortID, &it.Kind, &it.Body, &it.SlipID,
			&it.SendAt, &it.Status, &it.Attempts, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// MarkSent flips a queued message to SENT.
func (s *Postgres) MarkSent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_messages SET status = 'SENT' WHERE id = $1 AND status = 'QUEUED'`, id)
	if err != nil {
		return fmt.Errorf("mark sent %s: %w", id, err)
	}
	return nil
}

// MarkFailed bumps the attempt counter and cancels the message once the
// attempt budget is spent. It reports whether the message was given up.
func (s *Postgres) MarkFailed(ctx context.Context, id string, maxAttempts int) (bool, error) {
	var status models.MessageStatus
	err := s.db.QueryRowContext(ctx,
		`UPDATE scheduled_messages SET
			attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= $2 THEN 'CANCELLED' ELSE status END
		 WHERE id = $1 AND status = 'QUEUED'
		 RETURNING status`, id, maxAttempts).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark failed %s: %w", id, err)
	}
	return status == models.MessageCancelled, nil
}

// CancelMessage cancels one queued message by short id.
func (s *Postgres) CancelMessage(ctx context.Context, shortID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_messages SET status = 'CANCELLED' WHERE short_id = $1 AND status = 'QUEUED'`, shortID)
	if err != nil {
		return false, fmt.Errorf("cancel message %d: %w", shortID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CancelMessagesForSlips cancels all queued messages attached to the
// given slips.
func (s *Postgres) CancelMessagesForSlips(ctx context.Context, slipIDs []int64) (int64, error) {
	if len(slipIDs) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_messages SET status = 'CANCELLED' WHERE slip_id = ANY($1) AND status = 'QUEUED'`,
		pq.Array(slipIDs))
	if err != nil {
		return 0, fmt.Errorf("cancel slip messages: %w", err)
	}
	return res.RowsAffected()
}
