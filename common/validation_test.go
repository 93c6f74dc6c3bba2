package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineErrorLog_Limit(t *testing.T) {
	log := NewLineErrorLog(2)
	log.Add(3, errors.New("bad one"))
	log.Add(7, errors.New("bad two"))
	log.Add(9, errors.New("bad three"))

	assert.Equal(t, int64(3), log.Total())
	assert.Equal(t, []LineError{{3, "bad one"}, {7, "bad two"}}, log.Entries())
}

func TestLineErrorLog_JSONRoundTrip(t *testing.T) {
	log := NewLineErrorLog(10)
	log.Add(1, errors.New(`unexpected "}"`))

	parsed, err := ParseLineErrors(log.ToJSON())
	require.NoError(t, err)
	assert.Equal(t, log.Entries(), parsed)
}

func TestLineErrorLog_Nil(t *testing.T) {
	var log *LineErrorLog
	log.Add(1, errors.New("ignored"))

	assert.Equal(t, int64(0), log.Total())
	assert.Empty(t, log.ToJSON())
	assert.Nil(t, log.Entries())
}

func TestParseLineErrors_Empty(t *testing.T) {
	errs, err := ParseLineErrors("")
	assert.NoError(t, err)
	assert.Nil(t, errs)
}
