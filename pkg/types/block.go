package types

import "encoding/json"

// Reserved block keys. Every other key in a block's JSON object is a style
// attribute.
const (
	blockKeyID      = "id"
	blockKeyContent = "content"
)

// Block is the atomic content unit of a column.
//
// Style attributes are an open map that is flattened into the block's JSON
// object next to id and content, matching the browser client, which merged
// style fields directly onto the block.
type Block struct {
	ID      ID
	Content string
	Style   map[string]any
}

// NewBlock returns an empty block with a fresh ID.
func NewBlock() Block {
	return Block{ID: NewID()}
}

// IsReservedKey reports whether key names a block field rather than a style
// attribute.
func IsReservedKey(key string) bool {
	return key == blockKeyID || key == blockKeyContent
}

// MergeStyle copies fields onto the block's style attributes. Existing keys
// are overwritten, others are preserved, and reserved keys are ignored.
// Returns true if any field was applied.
func (b *Block) MergeStyle(fields map[string]any) bool {
	applied := false
	for k, v := range fields {
		if IsReservedKey(k) {
			continue
		}
		if b.Style == nil {
			b.Style = make(map[string]any, len(fields))
		}
		b.Style[k] = v
		applied = true
	}
	return applied
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	b.Style = cloneMap(b.Style)
	return b
}

// fields returns the flattened JSON object for the block.
func (b Block) fields() map[string]any {
	m := make(map[string]any, len(b.Style)+2)
	for k, v := range b.Style {
		m[k] = v
	}
	m[blockKeyID] = b.ID
	m[blockKeyContent] = b.Content
	return m
}

// MarshalJSON writes id, content, and the style attributes as one object.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.fields())
}

// UnmarshalJSON reads id and content and collects every other key into Style.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return b.decodeFields(raw)
}

func (b *Block) decodeFields(raw map[string]json.RawMessage) error {
	*b = Block{}
	if v, ok := raw[blockKeyID]; ok {
		if err := json.Unmarshal(v, &b.ID); err != nil {
			return err
		}
	}
	if v, ok := raw[blockKeyContent]; ok {
		var content *string
		if err := json.Unmarshal(v, &content); err != nil {
			return err
		}
		if content != nil {
			b.Content = *content
		}
	}
	for k, v := range raw {
		if IsReservedKey(k) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		if b.Style == nil {
			b.Style = make(map[string]any)
		}
		b.Style[k] = val
	}
	return nil
}

// cloneMap deep-copies JSON-shaped values.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
