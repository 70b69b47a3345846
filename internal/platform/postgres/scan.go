package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// encodeIDs renders an id list as a JSONB array. A nil list is stored as [].
func encodeIDs(ids []uuid.UUID) ([]byte, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode id list: %w", err)
	}
	return b, nil
}

func decodeIDs(raw []byte) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return []uuid.UUID{}, nil
	}
	ids := []uuid.UUID{}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	return ids, nil
}

// nilUUID maps uuid.Nil to SQL NULL.
func nilUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// optUUID maps a nil pointer to SQL NULL.
func optUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func ptrUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
