// Package workflow declares the legal mandate status transitions.
//
// The table is a reified list of transition descriptors rather than a branch
// chain so legality and preconditions stay co-located and independently
// testable. Pairs absent from the table are illegal, including
// self-transitions.
package workflow

import "mandat/internal/mandate/models"

// Transition describes one legal ordered (From, To) pair and whether an
// assigned investigator must be present before it may run.
type Transition struct {
	From                 models.Status
	To                   models.Status
	RequiresInvestigator bool
}

// transitions is the authoritative table. completed → in-progress/open and
// expired → open are recovery transitions for corrections.
var transitions = []Transition{
	{From: models.StatusOpen, To: models.StatusInProgress, RequiresInvestigator: true},
	{From: models.StatusOpen, To: models.StatusCancelled},
	{From: models.StatusOpen, To: models.StatusExpired},
	{From: models.StatusInProgress, To: models.StatusCompleted, RequiresInvestigator: true},
	{From: models.StatusInProgress, To: models.StatusOpen},
	{From: models.StatusInProgress, To: models.StatusCancelled},
	{From: models.StatusCompleted, To: models.StatusInProgress},
	{From: models.StatusCompleted, To: models.StatusOpen},
	{From: models.StatusExpired, To: models.StatusOpen},
}

func lookup(from, to models.Status) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// CanTransition reports whether the (from, to) pair appears in the table.
func CanTransition(from, to models.Status) bool {
	_, ok := lookup(from, to)
	return ok
}

// RequiresInvestigator reports whether the transition demands an assigned
// investigator. Unknown pairs report false.
func RequiresInvestigator(from, to models.Status) bool {
	t, ok := lookup(from, to)
	return ok && t.RequiresInvestigator
}

// ValidNextStates returns every status reachable from the given one.
func ValidNextStates(from models.Status) []models.Status {
	var next []models.Status
	for _, t := range transitions {
		if t.From == from {
			next = append(next, t.To)
		}
	}
	return next
}
