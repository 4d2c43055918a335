package calendar

import (
	"encoding/json"
	"math"
	"time"
)

// FieldType identifies the kind of values a Field carries
type FieldType string

const (
	FieldTypeTime   FieldType = "time"
	FieldTypeNumber FieldType = "number"
	FieldTypeString FieldType = "string"
	FieldTypeOther  FieldType = "other"
)

// Field is a named column of values, parallel to the other fields of its frame
type Field struct {
	Name   string    `json:"name"`
	Type   FieldType `json:"type"`
	Values []any     `json:"values"`
}

// Len returns the number of values in the field
func (f Field) Len() int {
	return len(f.Values)
}

// Frame is the read-only view of a host data frame used by the aggregator:
// one time column plus the numeric, non-time columns in declaration order.
type Frame interface {
	TimeField() (Field, bool)
	NumberFields() []Field
}

// Table is the concrete tabular frame delivered by the data sources
type Table struct {
	Name   string         `json:"name,omitempty"`
	Fields []Field        `json:"fields"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// TimeField returns the first time-typed field of the table
func (t *Table) TimeField() (Field, bool) {
	idx := t.timeIndex()
	if idx < 0 {
		return Field{}, false
	}
	return t.Fields[idx], true
}

// NumberFields returns every numeric field that is not the time field
func (t *Table) NumberFields() []Field {
	idx := t.timeIndex()
	var fields []Field
	for i, f := range t.Fields {
		if i == idx {
			continue
		}
		if f.Type == FieldTypeNumber {
			fields = append(fields, f)
		}
	}
	return fields
}

// Field looks up a field by name
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Table) timeIndex() int {
	for i, f := range t.Fields {
		if f.Type == FieldTypeTime {
			return i
		}
	}
	return -1
}

// DataSet is the collection of frames the host delivers in one refresh.
// The controller compares DataSet pointers to decide whether to re-aggregate.
type DataSet struct {
	Frames []Frame
}

// NewDataSet wraps frames into a new data set
func NewDataSet(frames ...Frame) *DataSet {
	return &DataSet{Frames: frames}
}

// NewSeriesTable builds a two column table (Time, name) from parallel slices
// of epoch milliseconds and values.
func NewSeriesTable(name string, millis []int64, values []float64) *Table {
	times := make([]any, len(millis))
	for i, ms := range millis {
		times[i] = ms
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return &Table{
		Name: name,
		Fields: []Field{
			{Name: "Time", Type: FieldTypeTime, Values: times},
			{Name: name, Type: FieldTypeNumber, Values: vals},
		},
	}
}

// timeValue resolves a time column entry. Numbers are epoch milliseconds.
func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	}
	ms, ok := numberValue(v)
	if !ok || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

// numberValue converts a numeric column entry to float64. nil and
// non-numeric entries report false.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}
