package timestamp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestUnmarshalJSON_Layouts(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{`"2025-03-01T08:00:00.000000Z"`, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		{`"2025-03-01T08:00:00+02:00"`, time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)},
		{`"2025-03-01 08:00:00"`, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		{`"2025-03-01T08:00:00"`, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		{`"2025-03-01"`, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var got Time
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &got), tt.raw)
		assert.True(t, tt.want.Equal(got.Time), "%s decoded to %v", tt.raw, got.Time)
	}
}

func TestUnmarshalJSON_TolerantOfJunk(t *testing.T) {
	for _, raw := range []string{`null`, `""`, `"yesterday"`, `1740816000`, `{}`} {
		var got Time
		require.NoError(t, json.Unmarshal([]byte(raw), &got), raw)
		assert.True(t, got.IsZero(), raw)
	}
}

func TestUnmarshalJSON_OneBadFieldDoesNotFailDocument(t *testing.T) {
	var rows []struct {
		ID        int  `json:"id"`
		CreatedAt Time `json:"created_at"`
	}
	body := `[{"id":1,"created_at":"2025-03-01 08:00:00"},{"id":2,"created_at":"not a date"}]`

	require.NoError(t, json.Unmarshal([]byte(body), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 2025, rows[0].CreatedAt.Year())
	assert.True(t, rows[1].CreatedAt.IsZero())
}

func TestMarshal(t *testing.T) {
	ts := Time{Time: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T08:00:00Z"`, string(out))

	out, err = json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	y, err := yaml.Marshal(struct {
		At Time `yaml:"at"`
	}{At: ts})
	require.NoError(t, err)
	assert.Contains(t, string(y), "2025-03-01T08:00:00Z")
}

func TestFormat(t *testing.T) {
	assert.Empty(t, Time{}.Format("2006-01-02"))
	assert.NotEmpty(t, Time{Time: time.Now()}.Format("2006-01-02"))
}
