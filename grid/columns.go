// ABOUTME: Column visibility and order, persisted through the preferences service
// ABOUTME: Stored configurations are merged with the entity's current columns
package grid

import (
	"errors"
	"fmt"

	"github.com/harperreed/crmgrid/prefs"
)

// ErrNoVisibleColumns rejects a configuration that hides every column.
var ErrNoVisibleColumns = errors.New("at least one column must stay visible")

func (c *Controller[T]) defaultColumns() []prefs.ColumnPref {
	out := make([]prefs.ColumnPref, 0, len(c.cfg.Columns))
	for _, col := range c.cfg.Columns {
		out = append(out, prefs.ColumnPref{Field: col.Key, Label: col.Label, Visible: !col.Hidden})
	}
	return out
}

func (c *Controller[T]) loadColumns() {
	c.columns = c.defaultColumns()
	if c.prefs == nil {
		return
	}
	stored, ok, err := c.prefs.Columns(c.cfg.Module)
	if err != nil {
		c.notify.Notify(Notice{Level: LevelWarn, Message: fmt.Sprintf("Using default columns for %s: %v", c.cfg.Module, err)})
		return
	}
	if ok {
		c.columns = c.merge(stored)
	}
}

// merge keeps the stored order for known fields, drops fields the entity no
// longer has and appends new fields with their default visibility.
func (c *Controller[T]) merge(stored []prefs.ColumnPref) []prefs.ColumnPref {
	seen := map[string]bool{}
	out := make([]prefs.ColumnPref, 0, len(c.cfg.Columns))
	for _, p := range stored {
		col, ok := c.cfg.Column(p.Field)
		if !ok || seen[p.Field] {
			continue
		}
		seen[p.Field] = true
		out = append(out, prefs.ColumnPref{Field: col.Key, Label: col.Label, Visible: p.Visible})
	}
	for _, col := range c.cfg.Columns {
		if !seen[col.Key] {
			out = append(out, prefs.ColumnPref{Field: col.Key, Label: col.Label, Visible: !col.Hidden})
		}
	}
	return out
}

// Columns returns the effective ordered column configuration.
func (c *Controller[T]) Columns() []prefs.ColumnPref {
	return append([]prefs.ColumnPref(nil), c.columns...)
}

// VisibleColumns returns the visible columns in display order.
func (c *Controller[T]) VisibleColumns() []Column[T] {
	var out []Column[T]
	for _, p := range c.columns {
		if !p.Visible {
			continue
		}
		if col, ok := c.cfg.Column(p.Field); ok {
			out = append(out, col)
		}
	}
	return out
}

// SetColumns replaces the column configuration and persists it. On a
// persistence error the previous configuration stays.
func (c *Controller[T]) SetColumns(cols []prefs.ColumnPref) error {
	merged := c.merge(cols)
	visible := 0
	for _, p := range merged {
		if p.Visible {
			visible++
		}
	}
	if visible == 0 {
		return ErrNoVisibleColumns
	}
	if c.prefs != nil {
		if err := c.prefs.SetColumns(c.cfg.Module, merged); err != nil {
			c.notify.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Failed to save columns: %v", err)})
			return err
		}
	}
	c.columns = merged
	return nil
}

// ToggleColumn flips the visibility of one column and persists.
func (c *Controller[T]) ToggleColumn(field string) error {
	cols := c.Columns()
	for i := range cols {
		if cols[i].Field == field {
			cols[i].Visible = !cols[i].Visible
		}
	}
	return c.SetColumns(cols)
}

// MoveColumn shifts a column by delta positions and persists.
func (c *Controller[T]) MoveColumn(field string, delta int) error {
	cols := c.Columns()
	for i := range cols {
		if cols[i].Field != field {
			continue
		}
		j := clamp(i+delta, 0, len(cols)-1)
		cols[i], cols[j] = cols[j], cols[i]
		break
	}
	return c.SetColumns(cols)
}

// ResetColumns restores the entity defaults.
func (c *Controller[T]) ResetColumns() error {
	return c.SetColumns(c.defaultColumns())
}
