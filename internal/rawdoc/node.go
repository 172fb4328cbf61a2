// Package rawdoc wraps JSON documents of unknown shape. Every accessor is
// total: asking a scalar for a key, or a map for an index, yields an absent
// Node instead of an error, so callers can walk deep paths and check once.
package rawdoc

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
)

var errInvalidJSON = errors.New("decode node: invalid json")

// Node is a read-only view of one value in a JSON document. The zero Node is
// absent.
type Node struct {
	r gjson.Result
}

// New wraps a Go value by encoding it. Values that cannot be encoded give an
// absent Node.
func New(v any) Node {
	data, err := json.Marshal(v)
	if err != nil {
		return Node{}
	}
	return Node{r: gjson.ParseBytes(data)}
}

// Parse reads data. Numbers keep their source text so large identifiers
// survive without float rounding.
func Parse(data []byte) (Node, error) {
	if !gjson.ValidBytes(data) {
		return Node{}, errInvalidJSON
	}
	return Node{r: gjson.ParseBytes(data)}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	if !n.r.Exists() {
		return []byte("null"), nil
	}
	return []byte(n.r.Raw), nil
}

// Missing reports whether the node is absent or JSON null.
func (n Node) Missing() bool {
	return !n.r.Exists() || n.r.Type == gjson.Null
}

// IsObject reports whether the node is a JSON object.
func (n Node) IsObject() bool {
	return n.r.IsObject()
}

// IsArray reports whether the node is a JSON array.
func (n Node) IsArray() bool {
	return n.r.IsArray()
}

// Lookup returns the member named key and whether the key exists. A key that
// is present with a null value reports true. Keys match literally; a repeated
// key resolves to its last occurrence.
func (n Node) Lookup(key string) (Node, bool) {
	if !n.r.IsObject() {
		return Node{}, false
	}
	var (
		found gjson.Result
		ok    bool
	)
	n.r.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found, ok = v, true
		}
		return true
	})
	return Node{r: found}, ok
}

// Get returns the member named key, or an absent node.
func (n Node) Get(key string) Node {
	child, _ := n.Lookup(key)
	return child
}

// Path follows keys through nested objects.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur.Missing() {
			return Node{}
		}
	}
	return cur
}

// Items returns the elements of an array node, or nil for anything else.
func (n Node) Items() []Node {
	if !n.r.IsArray() {
		return nil
	}
	arr := n.r.Array()
	out := make([]Node, len(arr))
	for i, v := range arr {
		out[i] = Node{r: v}
	}
	return out
}

// Len is the element count of an array or object and zero otherwise.
func (n Node) Len() int {
	if !n.r.IsArray() && !n.r.IsObject() {
		return 0
	}
	count := 0
	n.r.ForEach(func(_, _ gjson.Result) bool {
		count++
		return true
	})
	return count
}

// Str returns the value if the node is a JSON string.
func (n Node) Str() (string, bool) {
	if n.r.Type != gjson.String {
		return "", false
	}
	return n.r.Str, true
}

// Text renders strings, numbers and booleans as text. Numbers come back as
// written in the source. Objects, arrays and absent nodes report false.
func (n Node) Text() (string, bool) {
	switch n.r.Type {
	case gjson.String:
		return n.r.Str, true
	case gjson.Number:
		return n.r.Raw, true
	case gjson.True:
		return "true", true
	case gjson.False:
		return "false", true
	}
	return "", false
}

// Int64 returns integral numeric values. Fractional numbers are truncated;
// strings are not converted.
func (n Node) Int64() (int64, bool) {
	if n.r.Type != gjson.Number {
		return 0, false
	}
	if i, err := strconv.ParseInt(n.r.Raw, 10, 64); err == nil {
		return i, true
	}
	return int64(n.r.Num), true
}

// IsNumber reports whether the node holds a JSON number.
func (n Node) IsNumber() bool {
	return n.r.Type == gjson.Number
}

// Bool returns the value if the node is a JSON boolean.
func (n Node) Bool() (bool, bool) {
	switch n.r.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	}
	return false, false
}

// Truthy applies loose truthiness: absent, false, zero, "" and empty
// containers are false.
func (n Node) Truthy() bool {
	switch n.r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return n.r.Str != ""
	case gjson.Number:
		return n.r.Num != 0
	}
	return n.Len() > 0
}
