// Package faults defines the closed set of failure categories raised by the
// catalog engine, the migration path and the lookup pipeline. Every public
// operation either succeeds or fails with exactly one category, carrying a
// human-readable message plus contextual strings for display.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

type Category string

const (
	MovieNotFound          Category = "movie_not_found"
	MovieExists            Category = "movie_exists"
	InvalidTitle           Category = "invalid_title"
	InvalidYear            Category = "invalid_year"
	TagNotFound            Category = "tag_not_found"
	TagExists              Category = "tag_exists"
	UnrecognizedOldVersion Category = "unrecognized_old_version"
	UpdateCheckZero        Category = "update_check_zero"
	InvalidAPIKey          Category = "invalid_api_key"
	ProviderUnreachable    Category = "provider_unreachable"
	ProviderRecordMissing  Category = "provider_record_missing"
	ProviderUnexpected     Category = "provider_unexpected"
	MalformedRange         Category = "malformed_range"
	InvalidIntCast         Category = "invalid_int_cast"
	LookupDisabled         Category = "lookup_disabled"
)

// Fault is a categorized failure. Context carries entity names and offending
// values suitable for UI display alongside the message.
type Fault struct {
	Category Category
	Message  string
	Context  []string
}

func New(cat Category, msg string, context ...string) *Fault {
	return &Fault{Category: cat, Message: msg, Context: context}
}

// Wrap attaches a category to an underlying error, keeping its text.
func Wrap(cat Category, err error, context ...string) *Fault {
	return &Fault{Category: cat, Message: err.Error(), Context: context}
}

func (f *Fault) Error() string {
	if len(f.Context) == 0 {
		return fmt.Sprintf("%s: %s", f.Category, f.Message)
	}
	return fmt.Sprintf("%s: %s [%s]", f.Category, f.Message, strings.Join(f.Context, ", "))
}

// CategoryOf extracts the category from an error chain. The second return
// is false when no Fault is present.
func CategoryOf(err error) (Category, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Category, true
	}
	return "", false
}

// Is reports whether err carries the given category.
func Is(err error, cat Category) bool {
	got, ok := CategoryOf(err)
	return ok && got == cat
}

// ContextOf returns the contextual strings of a categorized error, or nil.
func ContextOf(err error) []string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Context
	}
	return nil
}
