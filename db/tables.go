// ABOUTME: Table specs for each CRM collection and the Client that groups them
// ABOUTME: Holds the column lists, joins and scan functions per entity
package db

import (
	"database/sql"

	"github.com/harperreed/crmgrid/models"
)

const auditCols = "created_by, created_time, modified_by, modified_time"

// Client is the backend data-access client: one Table per collection.
type Client struct {
	DB            *sql.DB
	Meetings      *Table[models.Meeting]
	Contacts      *Table[models.Contact]
	Leads         *Table[models.Lead]
	Accounts      *Table[models.Account]
	Deals         *Table[models.Deal]
	Tasks         *Table[models.Task]
	Notifications *Table[models.Notification]
}

// NewClient binds every table to database. actor is written to the audit columns.
func NewClient(database *sql.DB, actor string) *Client {
	return &Client{
		DB:            database,
		Meetings:      newTable(database, actor, meetingSpec),
		Contacts:      newTable(database, actor, contactSpec),
		Leads:         newTable(database, actor, leadSpec),
		Accounts:      newTable(database, actor, accountSpec),
		Deals:         newTable(database, actor, dealSpec),
		Tasks:         newTable(database, actor, taskSpec),
		Notifications: newTable(database, actor, notificationSpec),
	}
}

func auditDest(a *models.Audit) []any {
	return []any{&a.CreatedBy, &a.CreatedTime, &a.ModifiedBy, &a.ModifiedTime}
}

var meetingSpec = tableSpec[models.Meeting]{
	name:    "meetings",
	alias:   "m",
	columns: []string{"title", "status", "start_time", "end_time", "location", "owner", "source", "description", "lead_id", "contact_id"},
	selectSQL: `SELECT m.id, m.title, m.status, m.start_time, m.end_time, m.location, m.owner, m.source, m.description,
		m.lead_id, m.contact_id, m.created_by, m.created_time, m.modified_by, m.modified_time,
		COALESCE(l.lead_name, ''), COALESCE(c.contact_name, '')
		FROM meetings m
		LEFT JOIN leads l ON l.id = m.lead_id
		LEFT JOIN contacts c ON c.id = m.contact_id`,
	orderBy: "m.start_time DESC",
	scan: func(s scanner) (models.Meeting, error) {
		var m models.Meeting
		dest := []any{&m.ID, &m.Title, &m.Status, &m.StartTime, &m.EndTime, &m.Location, &m.Owner, &m.Source, &m.Description, &m.LeadID, &m.ContactID}
		dest = append(dest, auditDest(&m.Audit)...)
		dest = append(dest, &m.LeadName, &m.ContactName)
		err := s.Scan(dest...)
		return m, err
	},
	values: func(m *models.Meeting) []any {
		return []any{m.Title, m.Status, m.StartTime, m.EndTime, m.Location, m.Owner, m.Source, m.Description, m.LeadID, m.ContactID}
	},
	id:    func(m *models.Meeting) *string { return &m.ID },
	audit: func(m *models.Meeting) *models.Audit { return &m.Audit },
}

var contactSpec = tableSpec[models.Contact]{
	name:    "contacts",
	alias:   "c",
	columns: []string{"contact_name", "email", "phone", "company_name", "account_id", "owner", "segment", "tag", "source"},
	selectSQL: `SELECT c.id, c.contact_name, c.email, c.phone, c.company_name, c.account_id, c.owner, c.segment, c.tag, c.source,
		c.created_by, c.created_time, c.modified_by, c.modified_time,
		COALESCE(a.account_name, '')
		FROM contacts c
		LEFT JOIN accounts a ON a.id = c.account_id`,
	orderBy: "c.created_time DESC",
	scan: func(s scanner) (models.Contact, error) {
		var c models.Contact
		dest := []any{&c.ID, &c.ContactName, &c.Email, &c.Phone, &c.CompanyName, &c.AccountID, &c.Owner, &c.Segment, &c.Tag, &c.Source}
		dest = append(dest, auditDest(&c.Audit)...)
		dest = append(dest, &c.AccountName)
		err := s.Scan(dest...)
		return c, err
	},
	values: func(c *models.Contact) []any {
		return []any{c.ContactName, c.Email, c.Phone, c.CompanyName, c.AccountID, c.Owner, c.Segment, c.Tag, c.Source}
	},
	id:    func(c *models.Contact) *string { return &c.ID },
	audit: func(c *models.Contact) *models.Audit { return &c.Audit },
}

var leadSpec = tableSpec[models.Lead]{
	name:    "leads",
	alias:   "l",
	columns: []string{"lead_name", "company_name", "email", "phone", "status", "owner", "source", "tag", "contact_id", "account_id"},
	selectSQL: `SELECT l.id, l.lead_name, l.company_name, l.email, l.phone, l.status, l.owner, l.source, l.tag,
		l.contact_id, l.account_id, l.created_by, l.created_time, l.modified_by, l.modified_time
		FROM leads l`,
	orderBy: "l.created_time DESC",
	scan: func(s scanner) (models.Lead, error) {
		var l models.Lead
		dest := []any{&l.ID, &l.LeadName, &l.CompanyName, &l.Email, &l.Phone, &l.Status, &l.Owner, &l.Source, &l.Tag, &l.ContactID, &l.AccountID}
		dest = append(dest, auditDest(&l.Audit)...)
		err := s.Scan(dest...)
		return l, err
	},
	values: func(l *models.Lead) []any {
		return []any{l.LeadName, l.CompanyName, l.Email, l.Phone, l.Status, l.Owner, l.Source, l.Tag, l.ContactID, l.AccountID}
	},
	id:    func(l *models.Lead) *string { return &l.ID },
	audit: func(l *models.Lead) *models.Audit { return &l.Audit },
}

var accountSpec = tableSpec[models.Account]{
	name:      "accounts",
	alias:     "a",
	columns:   []string{"account_name", "industry", "website", "phone", "owner", "segment", "status"},
	selectSQL: `SELECT a.id, a.account_name, a.industry, a.website, a.phone, a.owner, a.segment, a.status, ` + auditCols + ` FROM accounts a`,
	orderBy:   "a.account_name COLLATE NOCASE",
	scan: func(s scanner) (models.Account, error) {
		var a models.Account
		dest := []any{&a.ID, &a.AccountName, &a.Industry, &a.Website, &a.Phone, &a.Owner, &a.Segment, &a.Status}
		dest = append(dest, auditDest(&a.Audit)...)
		err := s.Scan(dest...)
		return a, err
	},
	values: func(a *models.Account) []any {
		return []any{a.AccountName, a.Industry, a.Website, a.Phone, a.Owner, a.Segment, a.Status}
	},
	id:    func(a *models.Account) *string { return &a.ID },
	audit: func(a *models.Account) *models.Audit { return &a.Audit },
}

var dealSpec = tableSpec[models.Deal]{
	name:    "deals",
	alias:   "d",
	columns: []string{"deal_name", "stage", "amount", "currency", "expected_close", "owner", "probability", "lead_id", "account_id"},
	selectSQL: `SELECT d.id, d.deal_name, d.stage, d.amount, d.currency, d.expected_close, d.owner, d.probability,
		d.lead_id, d.account_id, d.created_by, d.created_time, d.modified_by, d.modified_time,
		COALESCE(a.account_name, ''), COALESCE(l.lead_name, '')
		FROM deals d
		LEFT JOIN accounts a ON a.id = d.account_id
		LEFT JOIN leads l ON l.id = d.lead_id`,
	orderBy: "d.modified_time DESC",
	scan: func(s scanner) (models.Deal, error) {
		var d models.Deal
		dest := []any{&d.ID, &d.DealName, &d.Stage, &d.Amount, &d.Currency, &d.ExpectedClose, &d.Owner, &d.Probability, &d.LeadID, &d.AccountID}
		dest = append(dest, auditDest(&d.Audit)...)
		dest = append(dest, &d.AccountName, &d.LeadName)
		err := s.Scan(dest...)
		return d, err
	},
	values: func(d *models.Deal) []any {
		if d.Currency == "" {
			d.Currency = "USD"
		}
		return []any{d.DealName, d.Stage, d.Amount, d.Currency, d.ExpectedClose, d.Owner, d.Probability, d.LeadID, d.AccountID}
	},
	id:    func(d *models.Deal) *string { return &d.ID },
	audit: func(d *models.Deal) *models.Audit { return &d.Audit },
}

var taskSpec = tableSpec[models.Task]{
	name:      "action_items",
	alias:     "t",
	columns:   []string{"title", "status", "priority", "due_date", "owner", "lead_id", "contact_id"},
	selectSQL: `SELECT t.id, t.title, t.status, t.priority, t.due_date, t.owner, t.lead_id, t.contact_id, ` + auditCols + ` FROM action_items t`,
	orderBy:   "t.due_date IS NULL, t.due_date",
	scan: func(s scanner) (models.Task, error) {
		var t models.Task
		dest := []any{&t.ID, &t.Title, &t.Status, &t.Priority, &t.DueDate, &t.Owner, &t.LeadID, &t.ContactID}
		dest = append(dest, auditDest(&t.Audit)...)
		err := s.Scan(dest...)
		return t, err
	},
	values: func(t *models.Task) []any {
		return []any{t.Title, t.Status, t.Priority, t.DueDate, t.Owner, t.LeadID, t.ContactID}
	},
	id:    func(t *models.Task) *string { return &t.ID },
	audit: func(t *models.Task) *models.Audit { return &t.Audit },
}

var notificationSpec = tableSpec[models.Notification]{
	name:      "notifications",
	alias:     "n",
	columns:   []string{"kind", "subject", "body", "recipient", "sent_at", "lead_id"},
	selectSQL: `SELECT n.id, n.kind, n.subject, n.body, n.recipient, n.sent_at, n.lead_id, ` + auditCols + ` FROM notifications n`,
	orderBy:   "n.created_time DESC",
	scan: func(s scanner) (models.Notification, error) {
		var n models.Notification
		dest := []any{&n.ID, &n.Kind, &n.Subject, &n.Body, &n.Recipient, &n.SentAt, &n.LeadID}
		dest = append(dest, auditDest(&n.Audit)...)
		err := s.Scan(dest...)
		return n, err
	},
	values: func(n *models.Notification) []any {
		return []any{n.Kind, n.Subject, n.Body, n.Recipient, n.SentAt, n.LeadID}
	},
	id:    func(n *models.Notification) *string { return &n.ID },
	audit: func(n *models.Notification) *models.Audit { return &n.Audit },
}
