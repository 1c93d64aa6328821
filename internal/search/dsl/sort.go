package dsl

import "strings"

// SortField orders hits by a field.
type SortField struct {
	Field string
	Desc  bool
}

// ParseSort reads a sort key; a leading "-" means descending.
func ParseSort(key string) SortField {
	if strings.HasPrefix(key, "-") {
		return SortField{Field: key[1:], Desc: true}
	}
	return SortField{Field: key}
}

func (s SortField) encode() any {
	if s.Desc {
		return map[string]any{s.Field: "desc"}
	}
	return s.Field
}
