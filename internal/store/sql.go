package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lox/homegame/internal/game"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// SQLStore keeps records in Postgres or SQLite. Hands are stored as JSON.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn with driver and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time; concurrent writers otherwise see SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	s := &SQLStore{db: db, driver: driver}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies every schema file in name order. Each one only creates
// what does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		src, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, string(src)); err != nil {
			return fmt.Errorf("apply migration %s: %w", path.Base(name), err)
		}
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, tableID string) (Record, error) {
	q := s.rebind(`
SELECT table_id, version, hand_number, dealer_seat, small_blind, big_blind, turn_seconds, hand, updated_at
FROM table_state
WHERE table_id = ?`)

	var (
		rec     Record
		hand    sql.NullString
		updated int64
	)
	err := s.db.QueryRowContext(ctx, q, tableID).Scan(
		&rec.TableID,
		&rec.Version,
		&rec.HandNumber,
		&rec.DealerSeat,
		&rec.SmallBlind,
		&rec.BigBlind,
		&rec.TurnSeconds,
		&hand,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, tableID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", tableID, err)
	}
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	if hand.Valid && hand.String != "" {
		rec.Hand = &game.Hand{}
		if err := json.Unmarshal([]byte(hand.String), rec.Hand); err != nil {
			return Record{}, fmt.Errorf("decode hand for %s: %w", tableID, err)
		}
	}
	return rec, nil
}

func (s *SQLStore) Save(ctx context.Context, rec Record, expected int64) error {
	var hand sql.NullString
	if rec.Hand != nil {
		data, err := json.Marshal(rec.Hand)
		if err != nil {
			return fmt.Errorf("marshal hand: %w", err)
		}
		hand = sql.NullString{String: string(data), Valid: true}
	}

	var (
		res sql.Result
		err error
	)
	if expected == 0 {
		res, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO table_state (table_id, version, hand_number, dealer_seat, small_blind, big_blind, turn_seconds, hand, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (table_id) DO NOTHING`),
			rec.TableID, rec.Version, rec.HandNumber, rec.DealerSeat, rec.SmallBlind, rec.BigBlind, rec.TurnSeconds, hand, rec.UpdatedAt.UnixMilli())
	} else {
		res, err = s.db.ExecContext(ctx, s.rebind(`
UPDATE table_state
SET version = ?, hand_number = ?, dealer_seat = ?, small_blind = ?, big_blind = ?, turn_seconds = ?, hand = ?, updated_at = ?
WHERE table_id = ? AND version = ?`),
			rec.Version, rec.HandNumber, rec.DealerSeat, rec.SmallBlind, rec.BigBlind, rec.TurnSeconds, hand, rec.UpdatedAt.UnixMilli(), rec.TableID, expected)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.TableID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.TableID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s at expected version %d", ErrVersionConflict, rec.TableID, expected)
	}
	return nil
}

func (s *SQLStore) AppendAction(ctx context.Context, a ActionRecord) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO hand_actions (hand_id, seq, table_id, hand_number, player_id, action, amount, at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		a.HandID, a.Seq, a.TableID, a.HandNumber, a.PlayerID, a.Action, a.Amount, a.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("append action %d of hand %s: %w", a.Seq, a.HandID, err)
	}
	return nil
}

func (s *SQLStore) Actions(ctx context.Context, handID string) ([]ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT hand_id, seq, table_id, hand_number, player_id, action, amount, at
FROM hand_actions
WHERE hand_id = ?
ORDER BY seq`), handID)
	if err != nil {
		return nil, fmt.Errorf("list actions of hand %s: %w", handID, err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var (
			a  ActionRecord
			at int64
		)
		if err := rows.Scan(&a.HandID, &a.Seq, &a.TableID, &a.HandNumber, &a.PlayerID, &a.Action, &a.Amount, &at); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.At = time.UnixMilli(at).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) LoadSeats(ctx context.Context, tableID string) (map[int]game.Occupant, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT seat, participant_id, name, stack
FROM seats
WHERE table_id = ?`), tableID)
	if err != nil {
		return nil, fmt.Errorf("load seats of %s: %w", tableID, err)
	}
	defer rows.Close()

	out := make(map[int]game.Occupant)
	for rows.Next() {
		var (
			n   int
			occ game.Occupant
		)
		if err := rows.Scan(&n, &occ.ID, &occ.Name, &occ.Stack); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		out[n] = occ
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveSeats(ctx context.Context, tableID string, seats map[int]game.Occupant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save seats of %s: %w", tableID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM seats WHERE table_id = ?`), tableID); err != nil {
		return fmt.Errorf("clear seats of %s: %w", tableID, err)
	}
	insert := s.rebind(`
INSERT INTO seats (table_id, seat, participant_id, name, stack)
VALUES (?, ?, ?, ?, ?)`)
	for n, occ := range seats {
		if _, err := tx.ExecContext(ctx, insert, tableID, n, occ.ID, occ.Name, occ.Stack); err != nil {
			return fmt.Errorf("save seat %d of %s: %w", n, tableID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
