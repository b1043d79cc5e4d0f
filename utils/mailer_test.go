package utils

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteEmail(t *testing.T) {
	msg, err := InviteEmail("grace@example.com", InviteEmailData{
		TeamName:    "Platform <core>",
		InviterName: "Ada",
		InviteCode:  "AB12CD34",
		JoinURL:     "https://devsync.test/teams/join?code=AB12CD34",
		ExpiresIn:   "7 days",
		Year:        2024,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"grace@example.com"}, msg.To)
	assert.Equal(t, "Invitation to join Platform <core> on DevSync", msg.Subject)
	assert.Contains(t, msg.Text, "Your invite code: AB12CD34")
	assert.Contains(t, msg.Text, `join the team "Platform <core>"`)
	assert.Contains(t, msg.HTML, "Platform &lt;core&gt;")
	assert.Contains(t, msg.HTML, "&copy; 2024 DevSync")
	assert.NotContains(t, msg.Text, "\n\n\n")
}

func TestLogMailer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := LogMailer{Log: logrus.NewEntry(logger)}

	require.NoError(t, m.Send(context.Background(), EmailData{To: []string{"a@example.com"}, Subject: "hi"}))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "hi", hook.LastEntry().Data["subject"])
}
