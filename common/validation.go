package common

import (
	"github.com/bytedance/sonic"
)

// LineError is a line of input that could not be decoded.
type LineError struct {
	Line    int64  `json:"line"`
	Message string `json:"message"`
}

// LineErrorLog keeps the first limit line errors of a run and counts the
// rest. A nil log discards everything.
type LineErrorLog struct {
	limit   int
	entries []LineError
	total   int64
}

func NewLineErrorLog(limit int) *LineErrorLog {
	return &LineErrorLog{limit: limit}
}

// Add records err for line.
func (l *LineErrorLog) Add(line int64, err error) {
	if l == nil {
		return
	}
	l.total++
	if len(l.entries) < l.limit {
		l.entries = append(l.entries, LineError{Line: line, Message: err.Error()})
	}
}

func (l *LineErrorLog) Entries() []LineError {
	if l == nil {
		return nil
	}
	return l.entries
}

// Total counts every error added, kept or not.
func (l *LineErrorLog) Total() int64 {
	if l == nil {
		return 0
	}
	return l.total
}

// ToJSON converts the kept errors to a JSON array string.
func (l *LineErrorLog) ToJSON() string {
	if l == nil || len(l.entries) == 0 {
		return ""
	}
	data, _ := sonic.Marshal(l.entries)
	return string(data)
}

// ParseLineErrors reads a JSON array written by ToJSON.
func ParseLineErrors(s string) ([]LineError, error) {
	if s == "" {
		return nil, nil
	}
	var errs []LineError
	if err := sonic.UnmarshalString(s, &errs); err != nil {
		return nil, err
	}
	return errs, nil
}
