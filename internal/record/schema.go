package record

import "fmt"

type ColumnType uint8

const (
	ColInt64 ColumnType = iota
	ColBool
	ColFloat64
	ColText // UTF-8
)

func (t ColumnType) String() string {
	switch t {
	case ColInt64:
		return "INT64"
	case ColBool:
		return "BOOL"
	case ColFloat64:
		return "FLOAT64"
	case ColText:
		return "TEXT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

type Schema struct {
	Cols []Column `json:"cols"`
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColIndex returns the position of the named column, or -1.
func (s Schema) ColIndex(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

// Names returns column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i := range s.Cols {
		out[i] = s.Cols[i].Name
	}
	return out
}

// Project returns a schema containing only the columns at idxs, in order.
func (s Schema) Project(idxs []int) (Schema, error) {
	cols := make([]Column, 0, len(idxs))
	for _, i := range idxs {
		if i < 0 || i >= len(s.Cols) {
			return Schema{}, fmt.Errorf("record: projection index %d out of range (%d cols)", i, len(s.Cols))
		}
		cols = append(cols, s.Cols[i])
	}
	return Schema{Cols: cols}, nil
}

// CheckRow verifies values against the schema, coercing ints to int64.
// Returns the coerced row.
func CheckRow(s Schema, values []any) ([]any, error) {
	if len(values) != len(s.Cols) {
		return nil, fmt.Errorf("record: row has %d values, schema has %d cols", len(values), len(s.Cols))
	}
	out := make([]any, len(values))
	for i, v := range values {
		col := s.Cols[i]
		if v == nil {
			if !col.Nullable {
				return nil, fmt.Errorf("record: column %s is NOT NULL", col.Name)
			}
			continue
		}
		switch col.Type {
		case ColInt64:
			switch x := v.(type) {
			case int64:
				out[i] = x
			case int:
				out[i] = int64(x)
			case int32:
				out[i] = int64(x)
			default:
				return nil, fmt.Errorf("record: column %s expects INT64, got %T", col.Name, v)
			}
			continue
		case ColBool:
			if _, ok := v.(bool); !ok {
				return nil, fmt.Errorf("record: column %s expects BOOL, got %T", col.Name, v)
			}
		case ColFloat64:
			if _, ok := v.(float64); !ok {
				return nil, fmt.Errorf("record: column %s expects FLOAT64, got %T", col.Name, v)
			}
		case ColText:
			if _, ok := v.(string); !ok {
				return nil, fmt.Errorf("record: column %s expects TEXT, got %T", col.Name, v)
			}
		default:
			return nil, fmt.Errorf("record: unsupported column type %v", col.Type)
		}
		out[i] = v
	}
	return out, nil
}
