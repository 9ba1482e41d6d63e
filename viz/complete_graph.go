// ABOUTME: Account graph combining accounts, contacts and deals
// ABOUTME: Shows who works where and which deals each account carries
package viz

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/crmgrid/crm"
)

// AccountGraph renders every account with its linked contacts and deals.
func (g *GraphGenerator) AccountGraph(ctx context.Context, format string) (string, error) {
	accounts, err := g.client.Accounts.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch accounts: %w", err)
	}
	contacts, err := g.client.Contacts.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch contacts: %w", err)
	}
	deals, err := g.client.Deals.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch deals: %w", err)
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel("Accounts")

		accountNodes := make(map[string]*cgraph.Node, len(accounts))
		for _, a := range accounts {
			node, err := styledNode(graph, "account_"+shortID(a.ID), fmt.Sprintf("%s\n(Account)", a.AccountName), "box", "lightblue")
			if err != nil {
				return err
			}
			accountNodes[a.ID] = node
		}

		for _, c := range contacts {
			node, err := styledNode(graph, "contact_"+shortID(c.ID), fmt.Sprintf("%s\n%s", c.ContactName, c.Email), "ellipse", "lightgreen")
			if err != nil {
				return err
			}
			if c.AccountID == nil {
				continue
			}
			if acct, ok := accountNodes[*c.AccountID]; ok {
				edge, err := graph.CreateEdgeByName("works_at", node, acct)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("works at")
				edge.SetStyle("dashed")
			}
		}

		for _, d := range deals {
			node, err := styledNode(graph, "deal_"+shortID(d.ID),
				fmt.Sprintf("%s\n%s\n(%s)", d.DealName, crm.FormatMoney(d.Amount, d.Currency), d.Stage), "diamond", "lightyellow")
			if err != nil {
				return err
			}
			if d.AccountID == nil {
				continue
			}
			if acct, ok := accountNodes[*d.AccountID]; ok {
				edge, err := graph.CreateEdgeByName("deal_with", acct, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetLabel("deal")
			}
		}

		return nil
	})
}
