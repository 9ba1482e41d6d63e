// ABOUTME: Create, update and delete dispatch with notices and reloads
// ABOUTME: Exec methods only touch the backend; Finish methods apply results
package grid

import (
	"context"
	"errors"
	"fmt"
)

// DeleteResult reports which IDs a delete removed and which it skipped.
type DeleteResult struct {
	Deleted []string
	Skipped []string
}

// ExecCreate inserts rec. Safe off the UI goroutine.
func (c *Controller[T]) ExecCreate(ctx context.Context, rec *T) error {
	return c.cfg.Source.Insert(ctx, rec)
}

// ExecUpdate applies a partial update. Safe off the UI goroutine.
func (c *Controller[T]) ExecUpdate(ctx context.Context, id string, patch map[string]any) error {
	return c.cfg.Source.Update(ctx, id, patch)
}

// ExecDelete runs the BeforeDelete hook and then one batched delete for the
// IDs it allows. Safe off the UI goroutine.
func (c *Controller[T]) ExecDelete(ctx context.Context, ids []string, opts DeleteOptions) (DeleteResult, error) {
	allowed := ids
	if c.cfg.BeforeDelete != nil {
		var err error
		allowed, err = c.cfg.BeforeDelete(ctx, ids, opts)
		if err != nil {
			return DeleteResult{}, err
		}
	}

	res := DeleteResult{Deleted: allowed, Skipped: without(ids, allowed)}
	if len(allowed) == 0 {
		return res, nil
	}
	if err := c.cfg.Source.Delete(ctx, allowed...); err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// FinishMutation reports the outcome of a create or update.
func (c *Controller[T]) FinishMutation(verb string, err error) {
	if err != nil {
		c.notify.Notify(Notice{Level: LevelError, Message: c.failure(verb, err)})
		return
	}
	c.notify.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("%s %sd", c.Title(), verb)})
}

// FinishDelete reports a delete outcome. A successful bulk delete clears the
// selection; a failed one leaves it untouched.
func (c *Controller[T]) FinishDelete(res DeleteResult, err error, bulk bool) {
	switch {
	case errors.Is(err, ErrRefused):
		c.notify.Notify(Notice{Level: LevelWarn, Message: err.Error()})
		return
	case err != nil:
		c.notify.Notify(Notice{Level: LevelError, Message: c.failure("delete", err)})
		return
	}

	if bulk {
		c.ClearSelection()
	} else {
		for _, id := range res.Deleted {
			delete(c.selected, id)
		}
	}

	level := LevelSuccess
	if len(res.Deleted) == 0 {
		level = LevelWarn
	}
	c.notify.Notify(Notice{Level: level, Message: c.deleteSummary(res, bulk)})
}

func (c *Controller[T]) deleteSummary(res DeleteResult, bulk bool) string {
	if !bulk && len(res.Deleted) == 1 {
		return c.Title() + " deleted"
	}
	msg := fmt.Sprintf("%d %s deleted", len(res.Deleted), c.plural(len(res.Deleted)))
	if len(res.Skipped) > 0 {
		msg += fmt.Sprintf(", %d skipped", len(res.Skipped))
	}
	return msg
}

func (c *Controller[T]) plural(n int) string {
	if n == 1 {
		return c.cfg.Singular
	}
	return c.cfg.Module
}

func (c *Controller[T]) failure(verb string, err error) string {
	if msg := err.Error(); msg != "" {
		return fmt.Sprintf("Failed to %s %s: %s", verb, c.cfg.Singular, msg)
	}
	return fmt.Sprintf("Failed to %s %s", verb, c.cfg.Singular)
}

// Create inserts rec and reloads on success.
func (c *Controller[T]) Create(ctx context.Context, rec *T) error {
	err := c.ExecCreate(ctx, rec)
	c.FinishMutation("create", err)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.cfg.Singular, err)
	}
	return c.Reload(ctx)
}

// Update patches one record and reloads on success.
func (c *Controller[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	err := c.ExecUpdate(ctx, id, patch)
	c.FinishMutation("update", err)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.cfg.Singular, err)
	}
	return c.Reload(ctx)
}

// Delete removes one record and reloads on success.
func (c *Controller[T]) Delete(ctx context.Context, id string, opts DeleteOptions) (DeleteResult, error) {
	opts.Bulk = false
	res, err := c.ExecDelete(ctx, []string{id}, opts)
	c.FinishDelete(res, err, false)
	if err != nil {
		return res, fmt.Errorf("failed to delete %s: %w", c.cfg.Singular, err)
	}
	return res, c.Reload(ctx)
}

// BulkDelete removes every selected record in one batched call.
func (c *Controller[T]) BulkDelete(ctx context.Context, opts DeleteOptions) (DeleteResult, error) {
	return c.bulkDelete(ctx, c.Selected(), nil, opts)
}

// DeleteMany selects ids and removes them in one batched call. IDs the list
// does not hold are reported as skipped.
func (c *Controller[T]) DeleteMany(ctx context.Context, ids []string, opts DeleteOptions) (DeleteResult, error) {
	c.ClearSelection()
	var missing []string
	for _, id := range ids {
		if _, ok := c.Find(id); ok {
			c.selected[id] = struct{}{}
		} else {
			missing = append(missing, id)
		}
	}
	return c.bulkDelete(ctx, c.Selected(), missing, opts)
}

func (c *Controller[T]) bulkDelete(ctx context.Context, ids, missing []string, opts DeleteOptions) (DeleteResult, error) {
	if len(ids) == 0 {
		if len(missing) == 0 {
			return DeleteResult{}, nil
		}
		res := DeleteResult{Skipped: missing}
		c.FinishDelete(res, nil, true)
		return res, nil
	}
	opts.Bulk = true
	res, err := c.ExecDelete(ctx, ids, opts)
	if err == nil {
		res.Skipped = append(res.Skipped, missing...)
	}
	c.FinishDelete(res, err, true)
	if err != nil {
		return res, fmt.Errorf("failed to delete %s: %w", c.cfg.Module, err)
	}
	return res, c.Reload(ctx)
}

func without(all, drop []string) []string {
	gone := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		gone[id] = struct{}{}
	}
	var out []string
	for _, id := range all {
		if _, ok := gone[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
