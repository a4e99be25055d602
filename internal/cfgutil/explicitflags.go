// Copyright (c) 2016-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

// ExplicitString is a string flag which remembers whether it was given on
// the command line.  It lets a default value be displayed in the help
// output while the behaviour it controls stays off until the flag is set,
// even when set to the default.
type ExplicitString struct {
	Value string
	set   bool
}

// NewExplicitString returns an unset flag holding defaultValue.
func NewExplicitString(defaultValue string) *ExplicitString {
	return &ExplicitString{Value: defaultValue}
}

// ExplicitlySet returns whether the flag was parsed from the command line.
func (e *ExplicitString) ExplicitlySet() bool {
	return e.set
}

// MarshalFlag satisfies the flags.Marshaler interface.
func (e *ExplicitString) MarshalFlag() (string, error) {
	return e.Value, nil
}

// UnmarshalFlag satisfies the flags.Unmarshaler interface.
func (e *ExplicitString) UnmarshalFlag(value string) error {
	e.Value = value
	e.set = true
	return nil
}
