// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Meeting, Contact, Lead, Account, Deal, Task and Notification records
package models

import (
	"time"
)

// Audit is embedded by every record. The backend fills it on insert/update.
type Audit struct {
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedTime  time.Time `json:"created_time"`
	ModifiedBy   string    `json:"modified_by,omitempty"`
	ModifiedTime time.Time `json:"modified_time"`
}

type Meeting struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Location    string     `json:"location,omitempty"`
	Owner       string     `json:"owner,omitempty"`
	Source      string     `json:"source,omitempty"`
	Description string     `json:"description,omitempty"`
	LeadID      *string    `json:"lead_id,omitempty"`
	ContactID   *string    `json:"contact_id,omitempty"`
	Audit

	// Joined display fields, never written back.
	LeadName    string `json:"lead_name,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
}

type Contact struct {
	ID          string  `json:"id"`
	ContactName string  `json:"contact_name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	CompanyName string  `json:"company_name,omitempty"` // denormalised fallback
	AccountID   *string `json:"account_id,omitempty"`
	Owner       string  `json:"owner,omitempty"`
	Segment     string  `json:"segment,omitempty"`
	Tag         string  `json:"tag,omitempty"`
	Source      string  `json:"source,omitempty"`
	Audit

	AccountName string `json:"account_name,omitempty"`
}

// Company prefers the joined account name over the denormalised column.
func (c Contact) Company() string {
	if c.AccountName != "" {
		return c.AccountName
	}
	return c.CompanyName
}

type Lead struct {
	ID          string  `json:"id"`
	LeadName    string  `json:"lead_name"`
	CompanyName string  `json:"company_name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Status      string  `json:"status"`
	Owner       string  `json:"owner,omitempty"`
	Source      string  `json:"source,omitempty"`
	Tag         string  `json:"tag,omitempty"`
	ContactID   *string `json:"contact_id,omitempty"`
	AccountID   *string `json:"account_id,omitempty"`
	Audit
}

type Account struct {
	ID          string `json:"id"`
	AccountName string `json:"account_name"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Segment     string `json:"segment,omitempty"`
	Status      string `json:"status"`
	Audit
}

type Deal struct {
	ID            string     `json:"id"`
	DealName      string     `json:"deal_name"`
	Stage         string     `json:"stage"`
	Amount        int64      `json:"amount,omitempty"` // in cents
	Currency      string     `json:"currency"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
	Owner         string     `json:"owner,omitempty"`
	Probability   int        `json:"probability,omitempty"`
	LeadID        *string    `json:"lead_id,omitempty"`
	AccountID     *string    `json:"account_id,omitempty"`
	Audit

	AccountName string `json:"account_name,omitempty"`
	LeadName    string `json:"lead_name,omitempty"`
}

// Task rows live in the action_items table.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	LeadID    *string    `json:"lead_id,omitempty"`
	ContactID *string    `json:"contact_id,omitempty"`
	Audit
}

type Notification struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	LeadID    *string    `json:"lead_id,omitempty"`
	Audit
}

func (m Meeting) RecordID() string      { return m.ID }
func (c Contact) RecordID() string      { return c.ID }
func (l Lead) RecordID() string         { return l.ID }
func (a Account) RecordID() string      { return a.ID }
func (d Deal) RecordID() string         { return d.ID }
func (t Task) RecordID() string         { return t.ID }
func (n Notification) RecordID() string { return n.ID }
