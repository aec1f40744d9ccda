package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pefman/omega-duel/internal/game"
)

// SQLite is a single-file store backed by modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps read-modify-write tallies consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS defences (
			player TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			fleet TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS standings (
			player TEXT PRIMARY KEY,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS commanders (
			player TEXT NOT NULL,
			commander INTEGER NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (player, commander)
		)`,
		`CREATE TABLE IF NOT EXISTS fights (
			id TEXT PRIMARY KEY,
			attacker TEXT NOT NULL,
			defender TEXT NOT NULL,
			result TEXT NOT NULL,
			fought_at TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) RegisterDefence(ctx context.Context, d game.Defence) error {
	fleet, err := encodeFleet(d.Fleet)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO defences (player, name, fleet) VALUES (?, ?, ?)
		 ON CONFLICT (player) DO UPDATE SET name = excluded.name, fleet = excluded.fleet,
		 updated_at = CURRENT_TIMESTAMP`,
		d.Player, d.Name, fleet)
	if err != nil {
		return fmt.Errorf("upsert defence: %w", err)
	}
	return nil
}

func (s *SQLite) Defence(ctx context.Context, player string) (game.Defence, error) {
	var name, fleet string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, fleet FROM defences WHERE player = ?`, player).Scan(&name, &fleet)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Defence{}, game.ErrNoDefence
	}
	if err != nil {
		return game.Defence{}, fmt.Errorf("query defence: %w", err)
	}
	f, err := decodeFleet(fleet)
	if err != nil {
		return game.Defence{}, err
	}
	return game.Defence{Player: player, Name: name, Fleet: f}, nil
}

func (s *SQLite) Defences(ctx context.Context) ([]game.Defence, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player, name, fleet FROM defences ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("query defences: %w", err)
	}
	defer rows.Close()

	var out []game.Defence
	for rows.Next() {
		var d game.Defence
		var fleet string
		if err := rows.Scan(&d.Player, &d.Name, &fleet); err != nil {
			return nil, err
		}
		if d.Fleet, err = decodeFleet(fleet); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const (
	sqliteAddWin  = `INSERT INTO standings (player, wins) VALUES (?, 1) ON CONFLICT (player) DO UPDATE SET wins = wins + 1`
	sqliteAddLoss = `INSERT INTO standings (player, losses) VALUES (?, 1) ON CONFLICT (player) DO UPDATE SET losses = losses + 1`
)

func (s *SQLite) RecordResult(ctx context.Context, fight game.RankedFight) error {
	winner, loser, ok := fight.Winner()
	if !ok {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteAddWin, winner); err != nil {
		return fmt.Errorf("tally win: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteAddLoss, loser); err != nil {
		return fmt.Errorf("tally loss: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) MarkWin(ctx context.Context, player string) error {
	_, err := s.db.ExecContext(ctx, sqliteAddWin, player)
	return err
}

func (s *SQLite) MarkLoss(ctx context.Context, player string) error {
	_, err := s.db.ExecContext(ctx, sqliteAddLoss, player)
	return err
}

func (s *SQLite) Standings(ctx context.Context) ([]game.Standing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player, wins, losses FROM standings ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []game.Standing
	for rows.Next() {
		var st game.Standing
		if err := rows.Scan(&st.Player, &st.Wins, &st.Losses); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLite) AddCommanderXP(ctx context.Context, player string, commander uint8, amount uint32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commanders (player, commander, xp) VALUES (?, ?, ?)
		 ON CONFLICT (player, commander) DO UPDATE SET xp = xp + excluded.xp`,
		player, commander, amount)
	if err != nil {
		return fmt.Errorf("add commander xp: %w", err)
	}
	return nil
}

func (s *SQLite) Commanders(ctx context.Context, player string) ([]game.CommanderXP, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT commander, xp FROM commanders WHERE player = ? ORDER BY commander`, player)
	if err != nil {
		return nil, fmt.Errorf("query commanders: %w", err)
	}
	defer rows.Close()

	var out []game.CommanderXP
	for rows.Next() {
		var c game.CommanderXP
		if err := rows.Scan(&c.Commander, &c.XP); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Publish archives a ranked fight.
func (s *SQLite) Publish(ctx context.Context, fight game.RankedFight) error {
	result, err := encodeResult(fight.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fights (id, attacker, defender, result, fought_at) VALUES (?, ?, ?, ?, ?)`,
		fight.ID, fight.Attacker, fight.Defender, result, fight.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert fight: %w", err)
	}
	return nil
}

func (s *SQLite) Fight(ctx context.Context, id string) (game.RankedFight, error) {
	f := game.RankedFight{ID: id}
	var result, at string
	err := s.db.QueryRowContext(ctx,
		`SELECT attacker, defender, result, fought_at FROM fights WHERE id = ?`, id).
		Scan(&f.Attacker, &f.Defender, &result, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return game.RankedFight{}, game.ErrFightNotFound
	}
	if err != nil {
		return game.RankedFight{}, fmt.Errorf("query fight: %w", err)
	}
	if f.Result, err = decodeResult(result); err != nil {
		return game.RankedFight{}, err
	}
	if f.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return game.RankedFight{}, fmt.Errorf("parse fought_at: %w", err)
	}
	return f, nil
}
