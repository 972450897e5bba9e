package grid

import (
	"encoding/json"
	"slices"
)

// ColumnType identifies the value domain of a column, which drives
// candidate normalization and conflict equivalence rules.
type ColumnType string

// Valid column types.
const (
	TypeText         ColumnType = "text"
	TypeBulletedList ColumnType = "bulleted_list"
	TypeNumber       ColumnType = "number"
	TypeCurrency     ColumnType = "currency"
	TypeYesNo        ColumnType = "yes_no"
	TypeDate         ColumnType = "date"
	TypeTag          ColumnType = "tag"
	TypeMultipleTags ColumnType = "multiple_tags"
	TypeVerbatim     ColumnType = "verbatim"
	TypeManualInput  ColumnType = "manual_input"
)

var columnTypes = []ColumnType{
	TypeText,
	TypeBulletedList,
	TypeNumber,
	TypeCurrency,
	TypeYesNo,
	TypeDate,
	TypeTag,
	TypeMultipleTags,
	TypeVerbatim,
	TypeManualInput,
}

// ColumnTypes returns the list of valid column types.
func ColumnTypes() []ColumnType {
	return columnTypes
}

// AlwaysReviewByDefault reports whether columns of this type force human
// review regardless of extraction confidence. Manual input columns exist
// precisely for values extraction cannot produce.
func (t ColumnType) AlwaysReviewByDefault() bool {
	return t == TypeManualInput
}

// UnmarshalJSON validates that the decoded string is a known column type.
func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := ColumnType(raw)
	if !slices.Contains(columnTypes, v) {
		return ErrInvalidColumnType
	}
	*t = v
	return nil
}

// ParseColumnType validates a string as a known column type.
// Returns ErrInvalidColumnType if the value is not recognized.
func ParseColumnType(s string) (ColumnType, error) {
	v := ColumnType(s)
	if !slices.Contains(columnTypes, v) {
		return "", ErrInvalidColumnType
	}
	return v, nil
}
