// ABOUTME: Lead to deal pipeline graph
// ABOUTME: Deals are clustered by stage and linked back to the lead they came from
package viz

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/models"
)

var stageFill = map[string]string{
	models.StageProspecting:   "gray90",
	models.StageQualification: "lightblue",
	models.StageProposal:      "lightyellow",
	models.StageNegotiation:   "plum",
	models.StageClosedWon:     "palegreen",
	models.StageClosedLost:    "mistyrose",
}

// PipelineGraph renders leads and their deals, one cluster per deal stage.
func (g *GraphGenerator) PipelineGraph(ctx context.Context, format string) (string, error) {
	leads, err := g.client.Leads.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch leads: %w", err)
	}
	deals, err := g.client.Deals.Select(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch deals: %w", err)
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel("Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		leadNodes := make(map[string]*cgraph.Node, len(leads))
		for _, l := range leads {
			label := fmt.Sprintf("%s\n(%s)", l.LeadName, l.Status)
			node, err := styledNode(graph, "lead_"+shortID(l.ID), label, "ellipse", "white")
			if err != nil {
				return err
			}
			leadNodes[l.ID] = node
		}

		clusters := make(map[string]*cgraph.Graph)
		for _, stage := range models.DealStages {
			cluster, err := graph.CreateSubGraphByName("cluster_" + stage)
			if err != nil {
				return fmt.Errorf("failed to create stage cluster: %w", err)
			}
			cluster.SetLabel(stage)
			clusters[stage] = cluster
		}

		for _, d := range deals {
			parent, ok := clusters[d.Stage]
			if !ok {
				parent = graph
			}
			label := fmt.Sprintf("%s\n%s", d.DealName, crm.FormatMoney(d.Amount, d.Currency))
			node, err := styledNode(parent, "deal_"+shortID(d.ID), label, "box", stageFill[d.Stage])
			if err != nil {
				return err
			}

			if d.LeadID == nil {
				continue
			}
			if leadNode, ok := leadNodes[*d.LeadID]; ok {
				if _, err := graph.CreateEdgeByName("converted", leadNode, node); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
		}

		return nil
	})
}
