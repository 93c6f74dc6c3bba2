package common

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/bytedance/sonic"
)

type unionKind uint8

const (
	unionNone unionKind = iota
	unionNumber
	unionString
	unionBool
)

var (
	errNotNumeric = errors.New("not a numeric value")
	errOutOfRange = errors.New("out of int64 range")
)

// unionText classifies a raw JSON value and returns its text, unquoted when
// it is a string.
func unionText(b []byte) (unionKind, string, error) {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		return unionNone, "", nil
	case b[0] == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return unionNone, "", err
		}
		return unionString, s, nil
	case string(b) == "true" || string(b) == "false":
		return unionBool, string(b), nil
	}
	return unionNumber, string(b), nil
}

// normalizeInt converts numeric text to an integer, truncating a fractional
// part.
func normalizeInt(text string) (int64, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q: %w", text, errNotNumeric)
	}
	if math.Abs(f) >= 1<<63 {
		return 0, fmt.Errorf("%q: %w", text, errOutOfRange)
	}
	return int64(f), nil
}

// Epoch is a Unix timestamp in seconds that arrives either as a JSON number
// or as a numeric string.
type Epoch struct {
	kind unionKind
	sec  int64
}

// EpochOf returns a numeric Epoch.
func EpochOf(sec int64) Epoch {
	return Epoch{kind: unionNumber, sec: sec}
}

func (e *Epoch) UnmarshalJSON(b []byte) error {
	kind, text, err := unionText(b)
	if err != nil {
		return err
	}
	switch kind {
	case unionNone:
		*e = Epoch{}
		return nil
	case unionBool:
		return fmt.Errorf("epoch: unexpected %s", text)
	}
	sec, err := normalizeInt(text)
	if err != nil {
		return fmt.Errorf("epoch: %w", err)
	}
	*e = Epoch{kind: kind, sec: sec}
	return nil
}

// Unix returns the normalized seconds.
func (e Epoch) Unix() int64 { return e.sec }

// Quoted reports whether the value arrived as a string.
func (e Epoch) Quoted() bool { return e.kind == unionString }

func (e Epoch) String() string { return strconv.FormatInt(e.sec, 10) }

// ID is a reference that arrives either as a string or as a number.
type ID struct {
	kind unionKind
	text string
}

// IDOf returns a string ID.
func IDOf(s string) ID {
	return ID{kind: unionString, text: s}
}

func (id *ID) UnmarshalJSON(b []byte) error {
	kind, text, err := unionText(b)
	if err != nil {
		return err
	}
	switch kind {
	case unionNone:
		*id = ID{}
		return nil
	case unionBool:
		return fmt.Errorf("id: unexpected %s", text)
	case unionNumber:
		text, err = normalizeNumberID(text)
		if err != nil {
			return fmt.Errorf("id: %w", err)
		}
	}
	*id = ID{kind: kind, text: text}
	return nil
}

// normalizeNumberID renders integral numbers without exponent or fraction.
func normalizeNumberID(text string) (string, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "", fmt.Errorf("%q: %w", text, errNotNumeric)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (id ID) String() string { return id.text }

// IsZero reports whether the field was missing or null.
func (id ID) IsZero() bool { return id.kind == unionNone }

// Edited is false or the Unix time of the last edit.
type Edited struct {
	kind unionKind
	flag bool
	at   int64
}

func (e *Edited) UnmarshalJSON(b []byte) error {
	kind, text, err := unionText(b)
	if err != nil {
		return err
	}
	switch kind {
	case unionNone:
		*e = Edited{}
	case unionBool:
		*e = Edited{kind: kind, flag: text == "true"}
	default:
		at, err := normalizeInt(text)
		if err != nil {
			return fmt.Errorf("edited: %w", err)
		}
		*e = Edited{kind: kind, flag: at != 0, at: at}
	}
	return nil
}

// IsEdited reports whether the record was edited.
func (e Edited) IsEdited() bool { return e.flag }

// At returns the edit time, or 0 when unknown.
func (e Edited) At() int64 { return e.at }
