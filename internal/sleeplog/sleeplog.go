// Package sleeplog maintains the per-date sleep ledger: at most one entry
// per date, upsert semantics, display order computed on read.
package sleeplog

import (
	"math"
	"sort"
	"time"

	"hearth/internal/player"
	"hearth/internal/protocol"
)

const dateLayout = "2006-01-02"

// Log upserts the hours slept for date. today is supplied by the caller so
// the future-date check does not depend on server wall clock or time zone.
// Hours must be a finite non-negative number; a day has 24 of them.
func Log(rec *player.Record, date string, hours float64, today string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return protocol.ErrInvalidInput
	}
	now, err := time.Parse(dateLayout, today)
	if err != nil {
		return protocol.ErrInvalidInput
	}
	if d.After(now) {
		return protocol.ErrInvalidInput
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 || hours > 24 {
		return protocol.ErrInvalidInput
	}

	for i := range rec.SleepEntries {
		if rec.SleepEntries[i].Date == date {
			rec.SleepEntries[i].Hours = hours
			return protocol.OKUpdated
		}
	}
	rec.SleepEntries = append(rec.SleepEntries, player.SleepEntry{Date: date, Hours: hours})
	return protocol.OKUpdated
}

// Sorted returns the entries most recent first. Storage order is whatever
// the upserts produced; ordering is a display concern.
func Sorted(rec *player.Record) []player.SleepEntry {
	out := append([]player.SleepEntry{}, rec.SleepEntries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
