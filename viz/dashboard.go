// ABOUTME: Dashboard statistics and terminal rendering
// ABOUTME: Counts per entity and status plus pipeline amounts per deal stage
package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmgrid/crm"
	"github.com/harperreed/crmgrid/db"
	"github.com/harperreed/crmgrid/models"
)

type DashboardStats struct {
	Totals map[string]int // per module

	MeetingsByStatus map[string]int
	LeadsByStatus    map[string]int
	PipelineByStage  map[string]PipelineStageStats

	OpenTasks    int
	OverdueTasks int
	Upcoming     []models.Meeting // scheduled, next seven days
}

type PipelineStageStats struct {
	Stage  string
	Count  int
	Amount int64 // in cents
}

// OpenPipeline sums the deals that are neither won nor lost.
func (s *DashboardStats) OpenPipeline() PipelineStageStats {
	open := PipelineStageStats{Stage: "open"}
	for stage, p := range s.PipelineByStage {
		if stage == models.StageClosedWon || stage == models.StageClosedLost {
			continue
		}
		open.Count += p.Count
		open.Amount += p.Amount
	}
	return open
}

// GenerateDashboardStats reads every collection once. now decides overdue
// tasks and upcoming meetings.
func GenerateDashboardStats(ctx context.Context, client *db.Client, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{
		Totals:           make(map[string]int),
		MeetingsByStatus: make(map[string]int),
		LeadsByStatus:    make(map[string]int),
		PipelineByStage:  make(map[string]PipelineStageStats),
	}

	meetings, err := client.Meetings.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meetings: %w", err)
	}
	stats.Totals[crm.ModuleMeetings] = len(meetings)
	weekOut := now.AddDate(0, 0, 7)
	for _, m := range meetings {
		stats.MeetingsByStatus[m.Status]++
		if m.Status == models.MeetingScheduled && m.StartTime != nil &&
			!m.StartTime.Before(now) && m.StartTime.Before(weekOut) {
			stats.Upcoming = append(stats.Upcoming, m)
		}
	}

	contacts, err := client.Contacts.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	stats.Totals[crm.ModuleContacts] = len(contacts)

	leads, err := client.Leads.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}
	stats.Totals[crm.ModuleLeads] = len(leads)
	for _, l := range leads {
		stats.LeadsByStatus[l.Status]++
	}

	accounts, err := client.Accounts.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	stats.Totals[crm.ModuleAccounts] = len(accounts)

	deals, err := client.Deals.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	stats.Totals[crm.ModuleDeals] = len(deals)
	for _, d := range deals {
		stage := d.Stage
		if stage == "" {
			stage = "unknown"
		}
		p := stats.PipelineByStage[stage]
		p.Stage = stage
		p.Count++
		p.Amount += d.Amount
		stats.PipelineByStage[stage] = p
	}

	tasks, err := client.Tasks.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	stats.Totals[crm.ModuleTasks] = len(tasks)
	for _, t := range tasks {
		if t.Status == models.TaskDone || t.Status == models.TaskCancelled {
			continue
		}
		stats.OpenTasks++
		if t.DueDate != nil && t.DueDate.Before(now) {
			stats.OverdueTasks++
		}
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE\n")
	renderPipeline(&out, stats.PipelineByStage)
	open := stats.OpenPipeline()
	fmt.Fprintf(&out, "  %-13s %d deals, %s\n\n", "open total", open.Count, crm.FormatMoney(open.Amount, ""))

	out.WriteString("LEADS\n")
	renderCounts(&out, models.LeadStatuses, stats.LeadsByStatus)
	out.WriteString("\n")

	out.WriteString("MEETINGS\n")
	renderCounts(&out, models.MeetingStatuses, stats.MeetingsByStatus)
	out.WriteString("\n")

	out.WriteString("TOTALS\n")
	for _, module := range crm.Modules {
		fmt.Fprintf(&out, "  %-13s %d\n", module, stats.Totals[module])
	}

	if stats.OverdueTasks > 0 || len(stats.Upcoming) > 0 {
		out.WriteString("\nNEEDS ATTENTION\n")
		if stats.OverdueTasks > 0 {
			fmt.Fprintf(&out, "  ⚠️  %d of %d open tasks overdue\n", stats.OverdueTasks, stats.OpenTasks)
		}
		if n := len(stats.Upcoming); n > 0 {
			fmt.Fprintf(&out, "  📅 %d meeting%s in the next 7 days\n", n, pluralS(n))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[string]PipelineStageStats) {
	maxCount := 1
	for _, p := range pipeline {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}

	for _, stage := range models.DealStages {
		p, ok := pipeline[stage]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %-13s %s  %2d  %s\n", stage, bar(p.Count, maxCount), p.Count, crm.FormatMoney(p.Amount, ""))
	}
}

func renderCounts(out *strings.Builder, order []string, counts map[string]int) {
	maxCount := 1
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	for _, status := range order {
		if n := counts[status]; n > 0 {
			fmt.Fprintf(out, "  %-13s %s  %2d\n", status, bar(n, maxCount), n)
		}
	}
}

// bar draws count on a ten-block scale.
func bar(count, maxCount int) string {
	n := (count * 10) / maxCount
	return strings.Repeat("█", n) + strings.Repeat("░", 10-n)
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
