// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for the six CRM tables plus sync bookkeeping
package db

import (
	"database/sql"
)

// No FOREIGN KEY clauses: referential guards and cascades are applied by the
// crm package before a delete is issued.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	account_name TEXT NOT NULL,
	industry TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	owner TEXT NOT NULL DEFAULT '',
	segment TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	contact_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	company_name TEXT NOT NULL DEFAULT '',
	account_id TEXT,
	owner TEXT NOT NULL DEFAULT '',
	segment TEXT NOT NULL DEFAULT '',
	tag TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_account_id ON contacts(account_id);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);

CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	lead_name TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	owner TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	tag TEXT NOT NULL DEFAULT '',
	contact_id TEXT,
	account_id TEXT,
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_account_id ON leads(account_id);

CREATE TABLE IF NOT EXISTS meetings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'scheduled',
	start_time DATETIME,
	end_time DATETIME,
	location TEXT NOT NULL DEFAULT '',
	owner TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	lead_id TEXT,
	contact_id TEXT,
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meetings_start_time ON meetings(start_time);

CREATE TABLE IF NOT EXISTS deals (
	id TEXT PRIMARY KEY,
	deal_name TEXT NOT NULL,
	stage TEXT NOT NULL DEFAULT 'prospecting',
	amount INTEGER NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	expected_close DATE,
	owner TEXT NOT NULL DEFAULT '',
	probability INTEGER NOT NULL DEFAULT 0,
	lead_id TEXT,
	account_id TEXT,
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage);

CREATE TABLE IF NOT EXISTS action_items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date DATETIME,
	owner TEXT NOT NULL DEFAULT '',
	lead_id TEXT,
	contact_id TEXT,
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_action_items_lead_id ON action_items(lead_id);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	recipient TEXT NOT NULL DEFAULT '',
	sent_at DATETIME,
	lead_id TEXT,
	created_by TEXT NOT NULL DEFAULT '',
	created_time DATETIME NOT NULL,
	modified_by TEXT NOT NULL DEFAULT '',
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_lead_id ON notifications(lead_id);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	source_service TEXT NOT NULL,
	source_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(source_service, source_id)
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
