// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks import status, sync tokens and which external rows map to which records
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sync statuses.
const (
	SyncIdle    = "idle"
	SyncSyncing = "syncing"
	SyncError   = "error"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service       string
	LastSyncTime  *time.Time
	LastSyncToken *string
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const syncStateCols = `service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at`

func scanSyncState(s scanner) (SyncState, error) {
	var state SyncState
	err := s.Scan(
		&state.Service,
		&state.LastSyncTime,
		&state.LastSyncToken,
		&state.Status,
		&state.ErrorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	return state, err
}

// GetSyncState retrieves the sync state for a service, or nil if it never ran.
func GetSyncState(ctx context.Context, db *sql.DB, service string) (*SyncState, error) {
	state, err := scanSyncState(db.QueryRowContext(ctx,
		`SELECT `+syncStateCols+` FROM sync_state WHERE service = ?`, service))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return &state, nil
}

// UpdateSyncStatus records the status for a service. errorMsg is cleared when nil.
func UpdateSyncStatus(ctx context.Context, db *sql.DB, service, status string, errorMsg *string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// UpdateSyncToken stores the incremental sync token and marks the service idle.
func UpdateSyncToken(ctx context.Context, db *sql.DB, service, token string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, last_sync_token, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_sync_token = excluded.last_sync_token,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, token)
	if err != nil {
		return fmt.Errorf("failed to update sync token: %w", err)
	}
	return nil
}

// GetAllSyncStates retrieves the sync state for all services.
func GetAllSyncStates(ctx context.Context, db *sql.DB) ([]SyncState, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+syncStateCols+` FROM sync_state ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

// FindSyncedEntity returns the record ID imported for an external row, or "".
func FindSyncedEntity(ctx context.Context, db *sql.DB, sourceService, sourceID string) (string, error) {
	var entityID string
	err := db.QueryRowContext(ctx, `
		SELECT entity_id FROM sync_log
		WHERE source_service = ? AND source_id = ?
	`, sourceService, sourceID).Scan(&entityID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check sync log: %w", err)
	}
	return entityID, nil
}

// RecordSync maps an external row onto a local record. Re-imports overwrite the mapping.
func RecordSync(ctx context.Context, db *sql.DB, sourceService, sourceID, entityType, entityID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_log (id, source_service, source_id, entity_type, entity_id, imported_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_service, source_id) DO UPDATE SET
			entity_id = excluded.entity_id,
			imported_at = CURRENT_TIMESTAMP
	`, uuid.New().String(), sourceService, sourceID, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}
