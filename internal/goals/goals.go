// Package goals rewards completed goals at most once per record.
package goals

import (
	"hearth/internal/player"
	"hearth/internal/protocol"
)

// Complete adds reward to the balance the first time goalID is seen and
// records it in completedGoals. Repeat completions are a deliberate no-op,
// which makes duplicate or replayed calls safe.
func Complete(rec *player.Record, goalID string, reward int) string {
	if goalID == "" || reward < 0 {
		return protocol.ErrInvalidInput
	}
	if rec.GoalCompleted(goalID) {
		return protocol.OKNoop
	}
	rec.Balance += reward
	rec.CompletedGoals = append(rec.CompletedGoals, goalID)
	return protocol.OKUpdated
}
