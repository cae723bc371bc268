package types

// Column is an ordered container of blocks with a title. The board is an
// ordered slice of columns rendered left to right.
type Column struct {
	ID     ID      `json:"id"`
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Clone returns a deep copy of the column. Blocks is never nil in the copy.
func (c Column) Clone() Column {
	blocks := make([]Block, len(c.Blocks))
	for i, b := range c.Blocks {
		blocks[i] = b.Clone()
	}
	c.Blocks = blocks
	return c
}

// BlockIndex returns the position of the block with the given ID, or -1.
func (c Column) BlockIndex(id ID) int {
	for i, b := range c.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// CloneColumns deep-copies a board snapshot. The result is never nil.
func CloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}

// Normalize replaces nil block slices with empty ones so that snapshots
// always serialize blocks as a JSON array.
func Normalize(cols []Column) []Column {
	if cols == nil {
		return []Column{}
	}
	for i := range cols {
		if cols[i].Blocks == nil {
			cols[i].Blocks = []Block{}
		}
	}
	return cols
}
