package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"array", `["go", "vue"]`, []string{"go", "vue"}},
		{"string holding array", `"[\"go\", \"vue\"]"`, []string{"go", "vue"}},
		{"blanks dropped", `[" go ", ""]`, []string{"go"}},
		{"empty", ``, []string{}},
		{"null", `null`, []string{}},
		{"plain string", `"go,vue"`, []string{}},
		{"object", `{"a":1}`, []string{}},
		{"numbers", `[1,2]`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags([]byte(tt.raw)))
		})
	}
}

func TestSplitEmails(t *testing.T) {
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, SplitEmails(" a@example.com, ,b@example.com,"))
	assert.Nil(t, SplitEmails(" , "))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "7 days", FormatDuration(7*24*time.Hour))
	assert.Equal(t, "1 day", FormatDuration(30*time.Hour))
	assert.Equal(t, "1.5 hours", FormatDuration(90*time.Minute))
	assert.Equal(t, "2.0 minutes", FormatDuration(2*time.Minute))
	assert.Equal(t, "3.0 seconds", FormatDuration(3*time.Second))
}

func TestGenerateRateLimitKey(t *testing.T) {
	assert.Equal(t, "rl:4:invite:9:/api/v1/teams/9/invites", GenerateRateLimitKey(4, "invite:9", "/api/v1/teams/9/invites"))
}
