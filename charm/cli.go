// ABOUTME: Charm subcommands: status, sync, wipe and auto-sync reporting
// ABOUTME: Charm authenticates with SSH keys so there is no login step

package charm

import (
	"flag"
	"fmt"
	"io"
)

// Command runs `crmgrid charm <sub>`.
func Command(c *Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return Status(c, out)
	}
	switch args[0] {
	case "status":
		return Status(c, out)
	case "sync":
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		_, _ = fmt.Fprintln(out, "✓ Synced")
		return nil
	case "wipe":
		return Wipe(c, args[1:], out)
	default:
		return fmt.Errorf("unknown charm command: %s", args[0])
	}
}

// Status prints host, auto-sync, connection and key count.
func Status(c *Client, out io.Writer) error {
	cfg := c.Config()
	_, _ = fmt.Fprintln(out, "Charm Sync Status")
	_, _ = fmt.Fprintln(out, "─────────────────")
	_, _ = fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	_, _ = fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)

	if id, err := c.ID(); err != nil {
		_, _ = fmt.Fprintln(out, "Status:    Not connected")
	} else {
		_, _ = fmt.Fprintf(out, "Status:    Connected (%s)\n", id)
	}

	keys, err := c.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Keys:      %d\n", len(keys))
	return nil
}

// Wipe resets the local preferences store. Requires --confirm.
func Wipe(c *Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("charm wipe", flag.ContinueOnError)
	fs.SetOutput(out)
	confirm := fs.Bool("confirm", false, "Confirm wiping all preferences")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		_, _ = fmt.Fprintln(out, "WARNING: This deletes all column preferences and saved views.")
		_, _ = fmt.Fprintln(out, "To confirm, run:")
		_, _ = fmt.Fprintln(out, "  crmgrid charm wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	_, _ = fmt.Fprintln(out, "✓ Preferences wiped")
	return nil
}
