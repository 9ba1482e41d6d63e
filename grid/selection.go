// ABOUTME: Row selection for bulk actions
// ABOUTME: Select-all covers the visible page up to SelectAllCap rows
package grid

// ToggleSelected flips the selection of one row.
func (c *Controller[T]) ToggleSelected(id string) {
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
	c.capped = false
}

// IsSelected reports whether id is selected.
func (c *Controller[T]) IsSelected(id string) bool {
	_, ok := c.selected[id]
	return ok
}

// SelectAllVisible selects the rows of the current page, at most
// SelectAllCap of them. When the page is already fully selected it
// deselects the page instead.
func (c *Controller[T]) SelectAllVisible() {
	visible := c.Page()
	if c.IsAllSelected() {
		// clears rows past the cap too
		for _, r := range visible {
			delete(c.selected, r.RecordID())
		}
		c.capped = false
		return
	}
	c.capped = len(visible) > SelectAllCap
	for i, r := range visible {
		if i == SelectAllCap {
			break
		}
		c.selected[r.RecordID()] = struct{}{}
	}
}

// SelectionCapped reports whether the last select-all hit SelectAllCap.
func (c *Controller[T]) SelectionCapped() bool { return c.capped }

// ClearSelection empties the selection.
func (c *Controller[T]) ClearSelection() {
	c.selected = map[string]struct{}{}
	c.capped = false
}

// IsAllSelected is true iff the page has rows and every row select-all
// would pick is selected: the whole page, or its first SelectAllCap rows.
func (c *Controller[T]) IsAllSelected() bool {
	visible := c.Page()
	if len(visible) == 0 {
		return false
	}
	if len(visible) > SelectAllCap {
		visible = visible[:SelectAllCap]
	}
	for _, r := range visible {
		if _, ok := c.selected[r.RecordID()]; !ok {
			return false
		}
	}
	return true
}

// Selected returns the selected IDs in fetch order.
func (c *Controller[T]) Selected() []string {
	ids := make([]string, 0, len(c.selected))
	for _, r := range c.rows {
		if _, ok := c.selected[r.RecordID()]; ok {
			ids = append(ids, r.RecordID())
		}
	}
	return ids
}

// SelectedCount is the number of selected rows.
func (c *Controller[T]) SelectedCount() int { return len(c.selected) }

// drop IDs that vanished from the backend
func (c *Controller[T]) pruneSelection() {
	present := make(map[string]struct{}, len(c.rows))
	for _, r := range c.rows {
		present[r.RecordID()] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := present[id]; !ok {
			delete(c.selected, id)
		}
	}
}
