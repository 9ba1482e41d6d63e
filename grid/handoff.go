// ABOUTME: Secondary row actions that open another entity's form pre-filled
// ABOUTME: The controller only describes the hand-off; surfaces open the modal
package grid

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrActionDisabled = errors.New("action not available for this record")
)

// Handoff tells a surface which form to open and what to pre-fill.
type Handoff struct {
	Action   string
	Target   string
	SourceID string
	Initial  map[string]string
}

// RowAction is an action resolved against one row.
type RowAction struct {
	Key         string
	Label       string
	Icon        string
	Destructive bool
	Enabled     bool
}

// Actions lists the secondary actions for row.
func (c *Controller[T]) Actions(row T) []RowAction {
	out := make([]RowAction, 0, len(c.cfg.Actions))
	for _, a := range c.cfg.Actions {
		out = append(out, RowAction{
			Key:         a.Key,
			Label:       a.Label,
			Icon:        a.Icon,
			Destructive: a.Destructive,
			Enabled:     a.Enabled == nil || a.Enabled(row),
		})
	}
	return out
}

// Handoff resolves action against row.
func (c *Controller[T]) Handoff(action string, row T) (Handoff, error) {
	for _, a := range c.cfg.Actions {
		if a.Key != action {
			continue
		}
		if a.Enabled != nil && !a.Enabled(row) {
			return Handoff{}, fmt.Errorf("%w: %s", ErrActionDisabled, action)
		}
		initial := map[string]string{}
		if a.Prefill != nil {
			initial = a.Prefill(row)
		}
		return Handoff{Action: a.Key, Target: a.Target, SourceID: row.RecordID(), Initial: initial}, nil
	}
	return Handoff{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
}
