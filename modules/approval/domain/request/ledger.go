package request

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Ledger is the ordered stage set of one request. Stages are created
// together with their request and never reordered afterwards.
type Ledger struct {
	stages []*Stage
}

func NewLedger(stages []*Stage) *Ledger {
	sorted := make([]*Stage, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})
	return &Ledger{stages: sorted}
}

func (l *Ledger) Stages() []*Stage {
	return l.stages
}

func (l *Ledger) Len() int {
	return len(l.stages)
}

func (l *Ledger) Empty() bool {
	return len(l.stages) == 0
}

// ValidateOrder fails unless order indices are exactly 1..N with no gaps
// and no duplicates. An empty ledger is valid.
func (l *Ledger) ValidateOrder() error {
	for i, stage := range l.stages {
		if stage.OrderIndex != i+1 {
			return fmt.Errorf("stage order indices must be sequential starting from 1, got %d at position %d", stage.OrderIndex, i+1)
		}
	}
	return nil
}

// First returns the stage with the smallest order index, or nil.
func (l *Ledger) First() *Stage {
	if len(l.stages) == 0 {
		return nil
	}
	return l.stages[0]
}

// Next returns the stage with the smallest order index strictly greater
// than currentIndex, or nil when currentIndex is the last stage.
func (l *Ledger) Next(currentIndex int) *Stage {
	for _, stage := range l.stages {
		if stage.OrderIndex > currentIndex {
			return stage
		}
	}
	return nil
}

// ByID returns the stage with the given id, or nil.
func (l *Ledger) ByID(id uuid.UUID) *Stage {
	for _, stage := range l.stages {
		if stage.ID == id {
			return stage
		}
	}
	return nil
}

// AssigneeIDs returns the distinct assignees in ledger order.
func (l *Ledger) AssigneeIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(l.stages))
	out := make([]uuid.UUID, 0, len(l.stages))
	for _, stage := range l.stages {
		if _, ok := seen[stage.AssigneeID]; ok {
			continue
		}
		seen[stage.AssigneeID] = struct{}{}
		out = append(out, stage.AssigneeID)
	}
	return out
}
