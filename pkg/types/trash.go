// Trash entities for soft-deleted columns and blocks.
package types

import (
	"encoding/json"
	"time"
)

// TrashKind names the sub-list of a TrashBin an item lives in.
type TrashKind string

// Trash item kinds.
const (
	TrashKindColumn TrashKind = "column"
	TrashKindBlock  TrashKind = "block"
)

// Valid reports whether k is a known kind.
func (k TrashKind) Valid() bool {
	return k == TrashKindColumn || k == TrashKindBlock
}

// Trash metadata keys on a trashed block's JSON object.
const (
	trashKeyDeletedAt         = "deletedAt"
	trashKeySourceColumnID    = "sourceColumnId"
	trashKeySourceColumnTitle = "sourceColumnTitle"
)

// TrashedColumn is a column in the trash. DeletedAt is nil for items that
// never recorded a deletion time; those never expire.
type TrashedColumn struct {
	Column
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// TrashedBlock is a block in the trash together with the column it was
// deleted from.
type TrashedBlock struct {
	Block
	DeletedAt         *time.Time
	SourceColumnID    ID
	SourceColumnTitle string
}

// MarshalJSON flattens the block and its trash metadata into one object.
func (tb TrashedBlock) MarshalJSON() ([]byte, error) {
	m := tb.Block.fields()
	if tb.DeletedAt != nil {
		m[trashKeyDeletedAt] = tb.DeletedAt
	}
	m[trashKeySourceColumnID] = tb.SourceColumnID
	m[trashKeySourceColumnTitle] = tb.SourceColumnTitle
	return json.Marshal(m)
}

// UnmarshalJSON splits the trash metadata from the block fields.
func (tb *TrashedBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*tb = TrashedBlock{}
	if v, ok := raw[trashKeyDeletedAt]; ok {
		if err := json.Unmarshal(v, &tb.DeletedAt); err != nil {
			return err
		}
		delete(raw, trashKeyDeletedAt)
	}
	if v, ok := raw[trashKeySourceColumnID]; ok {
		if err := json.Unmarshal(v, &tb.SourceColumnID); err != nil {
			return err
		}
		delete(raw, trashKeySourceColumnID)
	}
	if v, ok := raw[trashKeySourceColumnTitle]; ok {
		if err := json.Unmarshal(v, &tb.SourceColumnTitle); err != nil {
			return err
		}
		delete(raw, trashKeySourceColumnTitle)
	}
	return tb.Block.decodeFields(raw)
}

// TrashBin holds soft-deleted columns and blocks, newest first.
type TrashBin struct {
	Columns []TrashedColumn `json:"columns"`
	Blocks  []TrashedBlock  `json:"blocks"`
}

// NewTrashBin returns an empty bin whose lists serialize as JSON arrays.
func NewTrashBin() TrashBin {
	return TrashBin{Columns: []TrashedColumn{}, Blocks: []TrashedBlock{}}
}

// Normalize replaces nil lists with empty ones.
func (t TrashBin) Normalize() TrashBin {
	if t.Columns == nil {
		t.Columns = []TrashedColumn{}
	}
	if t.Blocks == nil {
		t.Blocks = []TrashedBlock{}
	}
	for i := range t.Columns {
		if t.Columns[i].Blocks == nil {
			t.Columns[i].Blocks = []Block{}
		}
	}
	return t
}

// Clone returns a deep copy of the bin.
func (t TrashBin) Clone() TrashBin {
	out := TrashBin{
		Columns: make([]TrashedColumn, len(t.Columns)),
		Blocks:  make([]TrashedBlock, len(t.Blocks)),
	}
	for i, c := range t.Columns {
		out.Columns[i] = TrashedColumn{Column: c.Column.Clone(), DeletedAt: cloneTime(c.DeletedAt)}
	}
	for i, b := range t.Blocks {
		b.Block = b.Block.Clone()
		b.DeletedAt = cloneTime(b.DeletedAt)
		out.Blocks[i] = b
	}
	return out
}

// Len returns the total number of trashed items.
func (t TrashBin) Len() int {
	return len(t.Columns) + len(t.Blocks)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
