package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a column or block. New IDs are UUID v7 strings. Boards
// written by the browser client used millisecond timestamps as column IDs,
// so decoding also accepts JSON numbers and keeps their decimal text.
type ID string

// NewID generates a new UUID v7 identifier.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return ID(uuid.New().String())
	}
	return ID(id.String())
}

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidID, data)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, data)
	}
	*id = ID(n.String())
	return nil
}
