package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pefman/omega-duel/internal/game"
)

// ================= Match log (in-memory) =================
// Ranked fights are kept by id with their inputs and result. Moves are not
// stored; GET /api/match/{id} regenerates them from the seed.

const recentFights = 200

type MatchLog struct {
	mu     sync.Mutex
	recs   map[string]game.RankedFight
	recent []string // ids, oldest first
	dir    string
}

func newMatchLog(dir string) (*MatchLog, error) {
	dir = strings.TrimSpace(dir)
	if dir != "" {
		if !filepath.IsAbs(dir) {
			// make relative paths anchored to cwd
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("match log dir: %w", err)
		}
	}
	return &MatchLog{recs: map[string]game.RankedFight{}, dir: dir}, nil
}

// Publish implements game.EventSink.
func (m *MatchLog) Publish(_ context.Context, fight game.RankedFight) error {
	if strings.TrimSpace(fight.ID) == "" {
		return errors.New("ranked fight without id")
	}
	m.mu.Lock()
	m.recs[fight.ID] = fight
	m.recent = append(m.recent, fight.ID)
	if len(m.recent) > recentFights {
		m.recent = m.recent[len(m.recent)-recentFights:]
	}
	m.mu.Unlock()
	return saveMatchRecord(m.dir, fight)
}

// Fight implements game.FightArchive. Records missing from memory are
// lazily loaded from disk when persistence is enabled.
func (m *MatchLog) Fight(_ context.Context, id string) (game.RankedFight, error) {
	m.mu.Lock()
	rec, ok := m.recs[id]
	m.mu.Unlock()
	if ok {
		return rec, nil
	}
	rec, ok = loadMatchRecord(m.dir, id)
	if !ok {
		return game.RankedFight{}, game.ErrFightNotFound
	}
	m.mu.Lock()
	m.recs[rec.ID] = rec
	m.mu.Unlock()
	return rec, nil
}

// Recent returns up to n fights, newest first.
func (m *MatchLog) Recent(n int) []game.RankedFight {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.RankedFight, 0, min(n, len(m.recent)))
	for i := len(m.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.recs[m.recent[i]])
	}
	return out
}

// archives tries each archive in turn.
type archives []game.FightArchive

func (a archives) Fight(ctx context.Context, id string) (game.RankedFight, error) {
	for _, arc := range a {
		f, err := arc.Fight(ctx, id)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, game.ErrFightNotFound) {
			return game.RankedFight{}, err
		}
	}
	return game.RankedFight{}, game.ErrFightNotFound
}

// ============ Optional local persistence for match logs (dev/debug) ============

func sanitizeIDForFile(id string) string {
	// keep alnum, dash, underscore; replace others with '-'
	b := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b = append(b, r)
		} else {
			b = append(b, '-')
		}
	}
	out := strings.Trim(strings.ReplaceAll(string(b), "--", "-"), "-")
	if out == "" {
		out = "match"
	}
	return out
}

func matchFilePath(dir, id string) string {
	return filepath.Join(dir, sanitizeIDForFile(id)+".json")
}

func saveMatchRecord(dir string, rec game.RankedFight) error {
	if dir == "" {
		return nil
	}
	path := matchFilePath(dir, rec.ID)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	// write atomically
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save match %s: %w", rec.ID, err)
	}
	return os.Rename(tmp, path)
}

func loadMatchRecord(dir, id string) (game.RankedFight, bool) {
	if dir == "" || strings.TrimSpace(id) == "" {
		return game.RankedFight{}, false
	}
	data, err := os.ReadFile(matchFilePath(dir, id))
	if err != nil {
		return game.RankedFight{}, false
	}
	var rec game.RankedFight
	if err := json.Unmarshal(data, &rec); err != nil {
		return game.RankedFight{}, false
	}
	if rec.ID != id {
		// sanitized names can collide
		return game.RankedFight{}, false
	}
	return rec, true
}
