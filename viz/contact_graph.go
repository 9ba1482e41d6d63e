// ABOUTME: Single contact activity graph
// ABOUTME: Links a contact to its account, leads, meetings and tasks
package viz

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz/cgraph"
)

// ContactGraph renders the records that reference one contact.
func (g *GraphGenerator) ContactGraph(ctx context.Context, contactID, format string) (string, error) {
	contact, err := g.client.Contacts.Get(ctx, contactID)
	if err != nil {
		return "", err
	}
	leads, err := g.client.Leads.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch leads: %w", err)
	}
	meetings, err := g.client.Meetings.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch meetings: %w", err)
	}
	tasks, err := g.client.Tasks.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch tasks: %w", err)
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel(contact.ContactName)
		graph.SetLayout("neato")

		center, err := styledNode(graph, "contact", fmt.Sprintf("%s\n%s", contact.ContactName, contact.Email), "ellipse", "lightgreen")
		if err != nil {
			return err
		}

		link := func(name, label, shape, fill, edgeLabel string) error {
			node, err := styledNode(graph, name, label, shape, fill)
			if err != nil {
				return err
			}
			edge, err := graph.CreateEdgeByName(edgeLabel, center, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(edgeLabel)
			return nil
		}

		if company := contact.Company(); company != "" {
			if err := link("account", company, "box", "lightblue", "works at"); err != nil {
				return err
			}
		}
		for _, l := range leads {
			if l.ContactID != nil && *l.ContactID == contact.ID {
				if err := link("lead_"+shortID(l.ID), fmt.Sprintf("%s\n(%s)", l.LeadName, l.Status), "ellipse", "white", "lead"); err != nil {
					return err
				}
			}
		}
		for _, m := range meetings {
			if m.ContactID != nil && *m.ContactID == contact.ID {
				if err := link("meeting_"+shortID(m.ID), m.Title, "note", "lightyellow", "met"); err != nil {
					return err
				}
			}
		}
		for _, t := range tasks {
			if t.ContactID != nil && *t.ContactID == contact.ID {
				if err := link("task_"+shortID(t.ID), fmt.Sprintf("%s\n(%s)", t.Title, t.Status), "component", "gray90", "task"); err != nil {
					return err
				}
			}
		}

		return nil
	})
}
