package authflow

import (
	"errors"
	"fmt"
	"strings"
)

// Field names shared by the flows.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// ErrUnknownField is returned when input targets a field the view does not have.
var ErrUnknownField = errors.New("unknown field")

// FieldSet is an ordered mapping from field name to the value the user typed.
// The set of names is fixed when the FieldSet is created.
type FieldSet struct {
	names  []string
	values map[string]string
}

// NewFieldSet creates a FieldSet with the given names, all blank.
func NewFieldSet(names ...string) FieldSet {
	fs := FieldSet{
		names:  make([]string, 0, len(names)),
		values: make(map[string]string, len(names)),
	}
	for _, n := range names {
		if _, dup := fs.values[n]; dup {
			continue
		}
		fs.names = append(fs.names, n)
		fs.values[n] = ""
	}
	return fs
}

// FieldSetOf builds a FieldSet from name/value pairs, keeping argument order.
// It is mostly useful in tests and the CLI.
func FieldSetOf(pairs ...string) FieldSet {
	names := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
	}
	fs := NewFieldSet(names...)
	for i := 0; i+1 < len(pairs); i += 2 {
		fs.values[pairs[i]] = pairs[i+1]
	}
	return fs
}

// Has reports whether name is part of the set.
func (fs FieldSet) Has(name string) bool {
	_, ok := fs.values[name]
	return ok
}

// Get returns the current value of name, or "" when the field is absent.
func (fs FieldSet) Get(name string) string {
	return fs.values[name]
}

// Set updates the value of an existing field.
func (fs *FieldSet) Set(name, value string) error {
	if !fs.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	fs.values[name] = value
	return nil
}

// Blank reports whether the field is empty once surrounding whitespace is ignored.
func (fs FieldSet) Blank(name string) bool {
	return strings.TrimSpace(fs.values[name]) == ""
}

// Names returns the field names in order.
func (fs FieldSet) Names() []string {
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

// Params returns the values as the parameter payload sent to the transport.
func (fs FieldSet) Params() map[string]string {
	out := make(map[string]string, len(fs.values))
	for k, v := range fs.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (fs FieldSet) Clone() FieldSet {
	c := NewFieldSet(fs.names...)
	for k, v := range fs.values {
		c.values[k] = v
	}
	return c
}

// Equal reports whether both sets hold the same names and values.
func (fs FieldSet) Equal(other FieldSet) bool {
	if len(fs.names) != len(other.names) {
		return false
	}
	for i, n := range fs.names {
		if other.names[i] != n || other.values[n] != fs.values[n] {
			return false
		}
	}
	return true
}
