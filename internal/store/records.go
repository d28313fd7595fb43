package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RawRecord is one submission from the raw record feed. Payload is nil when
// the submission carried no structured data.
type RawRecord struct {
	ID         int64
	TickHandle string
	Payload    []byte
	ReceivedAt time.Time
}

// InsertRawRecord appends a raw record and returns its ID.
func (s *Store) InsertRawRecord(ctx context.Context, rec RawRecord) (int64, error) {
	var payload any
	if rec.Payload != nil {
		payload = string(rec.Payload)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_records (tick_handle, payload, received_at)
		VALUES (?, ?, ?)
	`, rec.TickHandle, payload, toMillis(rec.ReceivedAt))
	if err != nil {
		return 0, fmt.Errorf("insert raw record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert raw record: last insert id: %w", err)
	}
	return id, nil
}

// RawRecordsByHandle returns every record stamped with handle, oldest
// first. Callers that keep the last record per key get last-write-wins.
func (s *Store) RawRecordsByHandle(ctx context.Context, handle string) ([]RawRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tick_handle, payload, received_at
		FROM raw_records
		WHERE tick_handle = ?
		ORDER BY received_at ASC, id ASC
	`, handle)
	if err != nil {
		return nil, fmt.Errorf("query raw records: %w", err)
	}
	defer rows.Close()

	records := []RawRecord{}
	for rows.Next() {
		var rec RawRecord
		var payload sql.NullString
		var received int64
		if err := rows.Scan(&rec.ID, &rec.TickHandle, &payload, &received); err != nil {
			return nil, fmt.Errorf("scan raw record: %w", err)
		}
		if payload.Valid {
			rec.Payload = []byte(payload.String)
		}
		rec.ReceivedAt = fromMillis(received)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw records: %w", err)
	}

	return records, nil
}
