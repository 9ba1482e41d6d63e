// ABOUTME: Per-entity list configuration: columns, search, filters and actions
// ABOUTME: One builder per CRM collection plus the matching create/edit forms
package crm

import (
	"github.com/harperreed/crmgrid/grid"
	"github.com/harperreed/crmgrid/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Module names, also used as preference keys and URL segments.
const (
	ModuleMeetings = "meetings"
	ModuleContacts = "contacts"
	ModuleLeads    = "leads"
	ModuleAccounts = "accounts"
	ModuleDeals    = "deals"
	ModuleTasks    = "tasks"
	ModuleEmail    = "email"
)

// Modules lists the entity modules in tab order.
var Modules = []string{ModuleMeetings, ModuleContacts, ModuleLeads, ModuleAccounts, ModuleDeals, ModuleTasks}

var printer = message.NewPrinter(language.English)

// FormatMoney renders cents with thousands separators, e.g. "USD 1,234.50".
func FormatMoney(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return printer.Sprintf("%s %.2f", currency, float64(cents)/100)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func text[T any](key, label string, value func(T) string) grid.Column[T] {
	return grid.Column[T]{Key: key, Label: label, Value: func(r T) any { return value(r) }}
}

func badge[T any](key, label string, value func(T) string) grid.Column[T] {
	c := text(key, label, value)
	c.Badge = true
	return c
}

func hidden[T any](c grid.Column[T]) grid.Column[T] {
	c.Hidden = true
	return c
}

func enumFilter[T any](key, label string, options []string) grid.Filter[T] {
	return grid.Filter[T]{Key: key, Label: label, Options: options}
}

func valueFilter[T any](key, label string) grid.Filter[T] {
	return grid.Filter[T]{Key: key, Label: label}
}

func meetingConfig(src grid.Source[models.Meeting]) grid.Config[models.Meeting] {
	type M = models.Meeting
	return grid.Config[M]{
		Module:   ModuleMeetings,
		Singular: "meeting",
		Source:   src,
		Columns: []grid.Column[M]{
			text("title", "Title", func(m M) string { return m.Title }),
			badge("status", "Status", func(m M) string { return m.Status }),
			{Key: "start_time", Label: "Start", Kind: grid.KindDate, Value: func(m M) any { return m.StartTime }},
			hidden(grid.Column[M]{Key: "end_time", Label: "End", Kind: grid.KindDate, Value: func(m M) any { return m.EndTime }}),
			text("location", "Location", func(m M) string { return m.Location }),
			text("lead_name", "Lead", func(m M) string { return m.LeadName }),
			hidden(text("contact_name", "Contact", func(m M) string { return m.ContactName })),
			text("owner", "Owner", func(m M) string { return m.Owner }),
			hidden(text("source", "Source", func(m M) string { return m.Source })),
			hidden(grid.Column[M]{Key: "created_time", Label: "Created", Kind: grid.KindDate, Value: func(m M) any { return m.CreatedTime }}),
		},
		SearchFields: []string{"title", "location", "lead_name"},
		Filters: []grid.Filter[M]{
			enumFilter[M]("status", "Status", models.MeetingStatuses),
			valueFilter[M]("owner", "Owner"),
			valueFilter[M]("source", "Source"),
		},
		DateField: "start_time",
		Actions: []grid.Action[M]{
			{Key: "create_task", Label: "Create task", Icon: "✓", Target: ModuleTasks, Prefill: func(m M) map[string]string {
				return map[string]string{"title": "Follow up: " + m.Title, "lead_id": deref(m.LeadID), "contact_id": deref(m.ContactID), "owner": m.Owner}
			}},
		},
	}
}

var meetingForm = Form{Module: ModuleMeetings, Fields: []FormField{
	{Key: "title", Label: "Title", Required: true},
	{Key: "status", Label: "Status", Kind: FieldEnum, Options: models.MeetingStatuses, Default: models.MeetingScheduled, Required: true},
	{Key: "start_time", Label: "Start", Kind: FieldDateTime},
	{Key: "end_time", Label: "End", Kind: FieldDateTime},
	{Key: "location", Label: "Location"},
	{Key: "owner", Label: "Owner"},
	{Key: "source", Label: "Source", Default: models.SourceManual},
	{Key: "description", Label: "Description", Kind: FieldLongText},
	{Key: "lead_id", Label: "Lead", Kind: FieldRef, Ref: ModuleLeads},
	{Key: "contact_id", Label: "Contact", Kind: FieldRef, Ref: ModuleContacts},
}}

func contactConfig(src grid.Source[models.Contact]) grid.Config[models.Contact] {
	type C = models.Contact
	return grid.Config[C]{
		Module:   ModuleContacts,
		Singular: "contact",
		Source:   src,
		Columns: []grid.Column[C]{
			text("contact_name", "Name", func(c C) string { return c.ContactName }),
			text("company_name", "Company", func(c C) string { return c.Company() }),
			text("email", "Email", func(c C) string { return c.Email }),
			text("phone", "Phone", func(c C) string { return c.Phone }),
			text("owner", "Owner", func(c C) string { return c.Owner }),
			badge("segment", "Segment", func(c C) string { return c.Segment }),
			hidden(text("tag", "Tag", func(c C) string { return c.Tag })),
			hidden(text("source", "Source", func(c C) string { return c.Source })),
		},
		SearchFields: []string{"contact_name", "company_name", "email", "phone"},
		Filters: []grid.Filter[C]{
			valueFilter[C]("owner", "Owner"),
			enumFilter[C]("segment", "Segment", models.Segments),
			valueFilter[C]("tag", "Tag"),
		},
		Actions: []grid.Action[C]{
			{Key: "send_email", Label: "Send email", Icon: "✉", Target: ModuleEmail,
				Enabled: func(c C) bool { return c.Email != "" },
				Prefill: func(c C) map[string]string {
					return map[string]string{"recipient": c.Email, "subject": "Hello " + c.ContactName}
				}},
			{Key: "schedule_meeting", Label: "Schedule meeting", Icon: "◷", Target: ModuleMeetings, Prefill: func(c C) map[string]string {
				return map[string]string{"title": "Meeting with " + c.ContactName, "contact_id": c.ID, "owner": c.Owner}
			}},
			{Key: "convert_lead", Label: "Convert to lead", Icon: "→", Target: ModuleLeads, Prefill: func(c C) map[string]string {
				return map[string]string{
					"lead_name":    c.ContactName,
					"company_name": c.Company(),
					"email":        c.Email,
					"phone":        c.Phone,
					"owner":        c.Owner,
					"contact_id":   c.ID,
					"account_id":   deref(c.AccountID),
				}
			}},
		},
	}
}

var contactForm = Form{Module: ModuleContacts, Fields: []FormField{
	{Key: "contact_name", Label: "Name", Required: true},
	{Key: "email", Label: "Email"},
	{Key: "phone", Label: "Phone"},
	{Key: "company_name", Label: "Company"},
	{Key: "account_id", Label: "Account", Kind: FieldRef, Ref: ModuleAccounts},
	{Key: "owner", Label: "Owner"},
	{Key: "segment", Label: "Segment", Kind: FieldEnum, Options: models.Segments},
	{Key: "tag", Label: "Tag"},
	{Key: "source", Label: "Source", Default: models.SourceManual},
}}

func leadConfig(src grid.Source[models.Lead]) grid.Config[models.Lead] {
	type L = models.Lead
	return grid.Config[L]{
		Module:   ModuleLeads,
		Singular: "lead",
		Source:   src,
		Columns: []grid.Column[L]{
			text("lead_name", "Name", func(l L) string { return l.LeadName }),
			text("company_name", "Company", func(l L) string { return l.CompanyName }),
			text("email", "Email", func(l L) string { return l.Email }),
			hidden(text("phone", "Phone", func(l L) string { return l.Phone })),
			badge("status", "Status", func(l L) string { return l.Status }),
			text("owner", "Owner", func(l L) string { return l.Owner }),
			text("source", "Source", func(l L) string { return l.Source }),
			hidden(text("tag", "Tag", func(l L) string { return l.Tag })),
			hidden(grid.Column[L]{Key: "created_time", Label: "Created", Kind: grid.KindDate, Value: func(l L) any { return l.CreatedTime }}),
		},
		SearchFields: []string{"lead_name", "company_name", "email"},
		Filters: []grid.Filter[L]{
			enumFilter[L]("status", "Status", models.LeadStatuses),
			valueFilter[L]("owner", "Owner"),
			valueFilter[L]("source", "Source"),
			valueFilter[L]("tag", "Tag"),
		},
		Actions: []grid.Action[L]{
			{Key: "send_email", Label: "Send email", Icon: "✉", Target: ModuleEmail,
				Enabled: func(l L) bool { return l.Email != "" },
				Prefill: func(l L) map[string]string {
					return map[string]string{"recipient": l.Email, "subject": "Following up", "lead_id": l.ID}
				}},
			{Key: "schedule_meeting", Label: "Schedule meeting", Icon: "◷", Target: ModuleMeetings, Prefill: func(l L) map[string]string {
				return map[string]string{"title": "Meeting with " + l.LeadName, "lead_id": l.ID, "contact_id": deref(l.ContactID), "owner": l.Owner}
			}},
			{Key: "create_task", Label: "Create task", Icon: "✓", Target: ModuleTasks, Prefill: func(l L) map[string]string {
				return map[string]string{"title": "Follow up with " + l.LeadName, "lead_id": l.ID, "owner": l.Owner}
			}},
			{Key: "convert_deal", Label: "Convert to deal", Icon: "$", Target: ModuleDeals,
				Enabled: func(l L) bool { return l.Status != models.LeadConverted },
				Prefill: func(l L) map[string]string {
					name := l.LeadName
					if l.CompanyName != "" {
						name = l.CompanyName
					}
					return map[string]string{"deal_name": name + " deal", "lead_id": l.ID, "account_id": deref(l.AccountID), "owner": l.Owner}
				}},
		},
	}
}

var leadForm = Form{Module: ModuleLeads, Fields: []FormField{
	{Key: "lead_name", Label: "Name", Required: true},
	{Key: "company_name", Label: "Company"},
	{Key: "email", Label: "Email"},
	{Key: "phone", Label: "Phone"},
	{Key: "status", Label: "Status", Kind: FieldEnum, Options: models.LeadStatuses, Default: models.LeadNew, Required: true},
	{Key: "owner", Label: "Owner"},
	{Key: "source", Label: "Source", Default: models.SourceManual},
	{Key: "tag", Label: "Tag"},
	{Key: "contact_id", Label: "Contact", Kind: FieldRef, Ref: ModuleContacts},
	{Key: "account_id", Label: "Account", Kind: FieldRef, Ref: ModuleAccounts},
}}

func accountConfig(src grid.Source[models.Account]) grid.Config[models.Account] {
	type A = models.Account
	return grid.Config[A]{
		Module:   ModuleAccounts,
		Singular: "account",
		Source:   src,
		Columns: []grid.Column[A]{
			text("account_name", "Name", func(a A) string { return a.AccountName }),
			text("industry", "Industry", func(a A) string { return a.Industry }),
			text("website", "Website", func(a A) string { return a.Website }),
			hidden(text("phone", "Phone", func(a A) string { return a.Phone })),
			text("owner", "Owner", func(a A) string { return a.Owner }),
			badge("segment", "Segment", func(a A) string { return a.Segment }),
			badge("status", "Status", func(a A) string { return a.Status }),
		},
		SearchFields: []string{"account_name", "industry", "website"},
		Filters: []grid.Filter[A]{
			enumFilter[A]("status", "Status", models.AccountStatuses),
			valueFilter[A]("owner", "Owner"),
			enumFilter[A]("segment", "Segment", models.Segments),
		},
		Actions: []grid.Action[A]{
			{Key: "add_contact", Label: "Add contact", Icon: "+", Target: ModuleContacts, Prefill: func(a A) map[string]string {
				return map[string]string{"account_id": a.ID, "company_name": a.AccountName, "owner": a.Owner, "segment": a.Segment}
			}},
		},
	}
}

var accountForm = Form{Module: ModuleAccounts, Fields: []FormField{
	{Key: "account_name", Label: "Name", Required: true},
	{Key: "industry", Label: "Industry"},
	{Key: "website", Label: "Website"},
	{Key: "phone", Label: "Phone"},
	{Key: "owner", Label: "Owner"},
	{Key: "segment", Label: "Segment", Kind: FieldEnum, Options: models.Segments},
	{Key: "status", Label: "Status", Kind: FieldEnum, Options: models.AccountStatuses, Default: models.AccountActive, Required: true},
}}

func dealConfig(src grid.Source[models.Deal]) grid.Config[models.Deal] {
	type D = models.Deal
	return grid.Config[D]{
		Module:   ModuleDeals,
		Singular: "deal",
		Source:   src,
		Columns: []grid.Column[D]{
			text("deal_name", "Name", func(d D) string { return d.DealName }),
			text("company", "Company", func(d D) string { return d.AccountName }),
			badge("stage", "Stage", func(d D) string { return d.Stage }),
			{Key: "amount", Label: "Amount", Kind: grid.KindNumber,
				Value:  func(d D) any { return d.Amount },
				Format: func(d D) string { return FormatMoney(d.Amount, d.Currency) }},
			{Key: "expected_close", Label: "Close", Kind: grid.KindDate, Value: func(d D) any { return d.ExpectedClose },
				Format: func(d D) string {
					if d.ExpectedClose == nil {
						return ""
					}
					return d.ExpectedClose.Format(DateLayout)
				}},
			hidden(grid.Column[D]{Key: "probability", Label: "Prob. %", Kind: grid.KindNumber, Value: func(d D) any { return d.Probability }}),
			text("owner", "Owner", func(d D) string { return d.Owner }),
			hidden(text("lead_name", "Lead", func(d D) string { return d.LeadName })),
		},
		SearchFields: []string{"deal_name", "company"},
		Filters: []grid.Filter[D]{
			enumFilter[D]("stage", "Stage", models.DealStages),
			valueFilter[D]("owner", "Owner"),
		},
		DateField: "expected_close",
		Actions: []grid.Action[D]{
			{Key: "create_task", Label: "Create task", Icon: "✓", Target: ModuleTasks, Prefill: func(d D) map[string]string {
				return map[string]string{"title": "Next step: " + d.DealName, "lead_id": deref(d.LeadID), "owner": d.Owner}
			}},
		},
	}
}

var dealForm = Form{Module: ModuleDeals, Fields: []FormField{
	{Key: "deal_name", Label: "Name", Required: true},
	{Key: "stage", Label: "Stage", Kind: FieldEnum, Options: models.DealStages, Default: models.StageProspecting, Required: true},
	{Key: "amount", Label: "Amount", Kind: FieldMoney},
	{Key: "currency", Label: "Currency", Default: "USD"},
	{Key: "expected_close", Label: "Expected close", Kind: FieldDate},
	{Key: "owner", Label: "Owner"},
	{Key: "probability", Label: "Probability", Kind: FieldInt},
	{Key: "lead_id", Label: "Lead", Kind: FieldRef, Ref: ModuleLeads},
	{Key: "account_id", Label: "Account", Kind: FieldRef, Ref: ModuleAccounts},
}}

func taskConfig(src grid.Source[models.Task]) grid.Config[models.Task] {
	type T = models.Task
	return grid.Config[T]{
		Module:   ModuleTasks,
		Singular: "task",
		Source:   src,
		Columns: []grid.Column[T]{
			text("title", "Title", func(t T) string { return t.Title }),
			badge("status", "Status", func(t T) string { return t.Status }),
			badge("priority", "Priority", func(t T) string { return t.Priority }),
			{Key: "due_date", Label: "Due", Kind: grid.KindDate, Value: func(t T) any { return t.DueDate }},
			text("owner", "Owner", func(t T) string { return t.Owner }),
		},
		SearchFields: []string{"title"},
		Filters: []grid.Filter[T]{
			enumFilter[T]("status", "Status", models.TaskStatuses),
			enumFilter[T]("priority", "Priority", models.TaskPriorities),
			valueFilter[T]("owner", "Owner"),
		},
		DateField: "due_date",
	}
}

var taskForm = Form{Module: ModuleTasks, Fields: []FormField{
	{Key: "title", Label: "Title", Required: true},
	{Key: "status", Label: "Status", Kind: FieldEnum, Options: models.TaskStatuses, Default: models.TaskOpen, Required: true},
	{Key: "priority", Label: "Priority", Kind: FieldEnum, Options: models.TaskPriorities, Default: models.PriorityMedium, Required: true},
	{Key: "due_date", Label: "Due", Kind: FieldDateTime},
	{Key: "owner", Label: "Owner"},
	{Key: "lead_id", Label: "Lead", Kind: FieldRef, Ref: ModuleLeads},
	{Key: "contact_id", Label: "Contact", Kind: FieldRef, Ref: ModuleContacts},
}}

// EmailForm composes a notification of kind email.
var EmailForm = Form{Module: ModuleEmail, Fields: []FormField{
	{Key: "recipient", Label: "To", Required: true},
	{Key: "subject", Label: "Subject", Required: true},
	{Key: "body", Label: "Body", Kind: FieldLongText},
	{Key: "lead_id", Label: "Lead", Kind: FieldRef, Ref: ModuleLeads},
}}

// ownerDefault fills the owner of a create form when left empty.
func ownerDefault(f Form, owner string) Form {
	if owner == "" {
		return f
	}
	out := Form{Module: f.Module, Fields: make([]FormField, len(f.Fields))}
	copy(out.Fields, f.Fields)
	for i := range out.Fields {
		if out.Fields[i].Key == "owner" && out.Fields[i].Default == "" {
			out.Fields[i].Default = owner
		}
	}
	return out
}
