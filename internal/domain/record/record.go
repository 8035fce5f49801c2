// Package record models schema-less store payloads as an ordered list of
// named scalar values, so result formatting and key stripping stay type-safe.
package record

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the closed set of scalar value types a record may carry.
type Kind int

const (
	// KindString is a plain string value.
	KindString Kind = iota
	// KindNumber is a float64 value.
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindTime is an RFC 3339 timestamp.
	KindTime
	// KindNull is an explicit null.
	KindNull
)

// Value is one scalar field value.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	ts   time.Time
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Timestamp creates a timestamp value.
func Timestamp(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// Null creates an explicit null value.
func Null() Value { return Value{kind: KindNull} }

// Kind returns the value's scalar kind.
func (v Value) Kind() Kind { return v.kind }

// Display renders the value for matched-field comparison and output.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.ts.Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON encodes the value by kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.ts.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// Parse interprets a raw store string as the most specific scalar kind.
// Hex-free digit strings longer than 15 characters (phone numbers, id card
// numbers) stay strings to avoid float precision loss.
func Parse(raw string) Value {
	switch raw {
	case "":
		return String("")
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	}
	if len(raw) <= 15 {
		// Only treat as a number when the text round-trips: keeps
		// leading-zero codes and exponent notation verbatim.
		if n, err := strconv.ParseFloat(raw, 64); err == nil &&
			strconv.FormatFloat(n, 'f', -1, 64) == raw {
			return Number(n)
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Timestamp(t)
	}
	return String(raw)
}

// Field is one named value inside a record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered field list. Order is deterministic: insertion order
// for built records, sorted field names for records parsed from store hashes.
type Record struct {
	fields []Field
}

// New builds a record from ordered fields.
func New(fields []Field) Record {
	return Record{fields: fields}
}

// FromStringMap builds a record from a store hash, parsing each value and
// ordering fields by name for deterministic output.
func FromStringMap(m map[string]string) Record {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name, Value: Parse(m[name])})
	}
	return Record{fields: fields}
}

// Fields returns the ordered field list.
func (r Record) Fields() []Field { return r.fields }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Get returns the value for a field name.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Without returns a copy of the record with the named fields removed.
// Used to strip store-internal primary keys before results leave the core.
func (r Record) Without(names ...string) Record {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		if _, skip := drop[f.Name]; skip {
			continue
		}
		kept = append(kept, f)
	}
	return Record{fields: kept}
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MatchesFold reports whether the named field's display value equals the
// query, ignoring case.
func (r Record) MatchesFold(name, query string) bool {
	v, ok := r.Get(name)
	if !ok {
		return false
	}
	return strings.EqualFold(v.Display(), query)
}
