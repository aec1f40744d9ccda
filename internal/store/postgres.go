package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pefman/omega-duel/internal/game"
)

// Postgres is a shared store backed by a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS defences (
		player TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		fleet JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS standings (
		player TEXT PRIMARY KEY,
		wins BIGINT NOT NULL DEFAULT 0,
		losses BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS commanders (
		player TEXT NOT NULL,
		commander SMALLINT NOT NULL,
		xp BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (player, commander)
	)`,
	`CREATE TABLE IF NOT EXISTS fights (
		id TEXT PRIMARY KEY,
		attacker TEXT NOT NULL,
		defender TEXT NOT NULL,
		result JSONB NOT NULL,
		fought_at TIMESTAMPTZ NOT NULL
	)`,
}

// OpenPostgres connects to dsn and creates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, ddl := range postgresSchema {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.Pool.Close()
	return nil
}

func (p *Postgres) RegisterDefence(ctx context.Context, d game.Defence) error {
	fleet, err := encodeFleet(d.Fleet)
	if err != nil {
		return err
	}
	_, err = p.Pool.Exec(ctx,
		`INSERT INTO defences (player, name, fleet) VALUES ($1, $2, $3)
		 ON CONFLICT (player) DO UPDATE SET name = EXCLUDED.name, fleet = EXCLUDED.fleet, updated_at = now()`,
		d.Player, d.Name, fleet)
	if err != nil {
		return fmt.Errorf("upsert defence: %w", err)
	}
	return nil
}

func (p *Postgres) Defence(ctx context.Context, player string) (game.Defence, error) {
	var name, fleet string
	err := p.Pool.QueryRow(ctx,
		`SELECT name, fleet::text FROM defences WHERE player = $1`, player).Scan(&name, &fleet)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (p *Postgres) Defences(ctx context.Context) ([]game.Defence, error) {
	rows, err := p.Pool.Query(ctx, `SELECT player, name, fleet::text FROM defences ORDER BY player`)
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
	pgAddWin  = `INSERT INTO standings (player, wins) VALUES ($1, 1) ON CONFLICT (player) DO UPDATE SET wins = standings.wins + 1`
	pgAddLoss = `INSERT INTO standings (player, losses) VALUES ($1, 1) ON CONFLICT (player) DO UPDATE SET losses = standings.losses + 1`
)

func (p *Postgres) RecordResult(ctx context.Context, fight game.RankedFight) error {
	winner, loser, ok := fight.Winner()
	if !ok {
		return nil
	}
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, pgAddWin, winner); err != nil {
		return fmt.Errorf("tally win: %w", err)
	}
	if _, err := tx.Exec(ctx, pgAddLoss, loser); err != nil {
		return fmt.Errorf("tally loss: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) MarkWin(ctx context.Context, player string) error {
	_, err := p.Pool.Exec(ctx, pgAddWin, player)
	return err
}

func (p *Postgres) MarkLoss(ctx context.Context, player string) error {
	_, err := p.Pool.Exec(ctx, pgAddLoss, player)
	return err
}

func (p *Postgres) Standings(ctx context.Context) ([]game.Standing, error) {
	rows, err := p.Pool.Query(ctx, `SELECT player, wins, losses FROM standings ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []game.Standing
	for rows.Next() {
		var player string
		var wins, losses int64
		if err := rows.Scan(&player, &wins, &losses); err != nil {
			return nil, err
		}
		out = append(out, game.Standing{Player: player, Wins: uint32(wins), Losses: uint32(losses)})
	}
	return out, rows.Err()
}

func (p *Postgres) AddCommanderXP(ctx context.Context, player string, commander uint8, amount uint32) error {
	_, err := p.Pool.Exec(ctx,
		`INSERT INTO commanders (player, commander, xp) VALUES ($1, $2, $3)
		 ON CONFLICT (player, commander) DO UPDATE SET xp = commanders.xp + EXCLUDED.xp`,
		player, int16(commander), int64(amount))
	if err != nil {
		return fmt.Errorf("add commander xp: %w", err)
	}
	return nil
}

func (p *Postgres) Commanders(ctx context.Context, player string) ([]game.CommanderXP, error) {
	rows, err := p.Pool.Query(ctx,
		`SELECT commander, xp FROM commanders WHERE player = $1 ORDER BY commander`, player)
	if err != nil {
		return nil, fmt.Errorf("query commanders: %w", err)
	}
	defer rows.Close()

	var out []game.CommanderXP
	for rows.Next() {
		var commander int16
		var xp int64
		if err := rows.Scan(&commander, &xp); err != nil {
			return nil, err
		}
		out = append(out, game.CommanderXP{Commander: uint8(commander), XP: uint32(xp)})
	}
	return out, rows.Err()
}

// Publish archives a ranked fight.
func (p *Postgres) Publish(ctx context.Context, fight game.RankedFight) error {
	result, err := encodeResult(fight.Result)
	if err != nil {
		return err
	}
	_, err = p.Pool.Exec(ctx,
		`INSERT INTO fights (id, attacker, defender, result, fought_at) VALUES ($1, $2, $3, $4, $5)`,
		fight.ID, fight.Attacker, fight.Defender, result, fight.At.UTC())
	if err != nil {
		return fmt.Errorf("insert fight: %w", err)
	}
	return nil
}

func (p *Postgres) Fight(ctx context.Context, id string) (game.RankedFight, error) {
	f := game.RankedFight{ID: id}
	var result string
	err := p.Pool.QueryRow(ctx,
		`SELECT attacker, defender, result::text, fought_at FROM fights WHERE id = $1`, id).
		Scan(&f.Attacker, &f.Defender, &result, &f.At)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.RankedFight{}, game.ErrFightNotFound
	}
	if err != nil {
		return game.RankedFight{}, fmt.Errorf("query fight: %w", err)
	}
	if f.Result, err = decodeResult(result); err != nil {
		return game.RankedFight{}, err
	}
	f.At = f.At.UTC()
	return f, nil
}
