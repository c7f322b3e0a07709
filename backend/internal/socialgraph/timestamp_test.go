package socialgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2018-11-11 11:27:09.000000", time.Date(2018, 11, 11, 11, 27, 9, 0, time.UTC)},
		{"2018-11-11 11:27:09", time.Date(2018, 11, 11, 11, 27, 9, 0, time.UTC)},
		{"2018-11-11 11:27:09.250000+00:00", time.Date(2018, 11, 11, 11, 27, 9, 250000000, time.UTC)},
		{"2018-11-11T11:27:09.5Z", time.Date(2018, 11, 11, 11, 27, 9, 500000000, time.UTC)},
		{"2018-11-11T13:27:09+02:00", time.Date(2018, 11, 11, 11, 27, 9, 0, time.UTC)},
		{"2018-11-11T11:27:09.123", time.Date(2018, 11, 11, 11, 27, 9, 123000000, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, raw := range []string{"", "  ", "yesterday", "11/11/2018"} {
		_, err := ParseTimestamp(raw)
		assert.Error(t, err, raw)
	}
}

func TestValidateAuthor(t *testing.T) {
	assert.NoError(t, ValidateAuthor(alice, "c", 0, "author"))

	err := ValidateAuthor(Author{Name: "x"}, "c", 4, "author")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "author.id")

	err = ValidateAuthor(Author{ID: "x"}, "c", 4, "mentions[1]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mentions[1].name")
}
