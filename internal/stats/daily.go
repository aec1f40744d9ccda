package stats

// This file contains the per-day fight tally. It complements stats.go.

import (
	"context"
	"sync"

	"github.com/pefman/omega-duel/internal/game"
)

// DailySummary describes the ranked fights of one UTC day.
type DailySummary struct {
	Date   string `json:"date"`
	Fights int    `json:"fights"`
	// Top is the fight that destroyed the most units, ties going to the
	// earlier fight.
	Top *game.RankedFight `json:"top,omitempty"`
}

// Daily tallies ranked fights per UTC date. It implements game.EventSink.
type Daily struct {
	mu   sync.Mutex
	days map[string]*DailySummary
}

func NewDaily() *Daily {
	return &Daily{days: make(map[string]*DailySummary)}
}

func unitsDestroyed(f game.RankedFight) int {
	total := 0
	for i := range f.Result.ShipsLostLhs {
		total += int(f.Result.ShipsLostLhs[i]) + int(f.Result.ShipsLostRhs[i])
	}
	return total
}

func (d *Daily) Publish(_ context.Context, fight game.RankedFight) error {
	key := fight.At.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	day := d.days[key]
	if day == nil {
		day = &DailySummary{Date: key}
		d.days[key] = day
	}
	day.Fights++
	if day.Top == nil || unitsDestroyed(fight) > unitsDestroyed(*day.Top) {
		f := fight
		day.Top = &f
	}
	return nil
}

// Day returns the summary for a date in YYYY-MM-DD form.
func (d *Daily) Day(date string) DailySummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	if day, ok := d.days[date]; ok {
		return *day
	}
	return DailySummary{Date: date}
}
