package notifysvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/services/logger"
)

func TestConsoleNotifier(t *testing.T) {
	tests := []struct {
		name  string
		notif core.Notification
		want  string
	}{
		{
			name:  "success",
			notif: core.Notification{Title: "Welcome back!", Description: "Logged in.", Severity: core.SeveritySuccess},
			want:  "Welcome back!: Logged in.\n",
		},
		{
			name:  "error",
			notif: core.Notification{Title: "Login failed", Description: "Try again.", Severity: core.SeverityError},
			want:  "Login failed: Try again.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			NewConsoleNotifier(&out, true /* noColor */).Notify(tt.notif)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	_, ok := rec.Last()
	assert.False(t, ok)

	rec.Notify(core.Notification{Title: "a"})
	rec.Notify(core.Notification{Title: "b"})

	last, ok := rec.Last()
	assert.True(t, ok)
	assert.Equal(t, "b", last.Title)
	assert.Len(t, rec.Notifications(), 2)

	rec.Reset()
	assert.Empty(t, rec.Notifications())
}

func TestLoggerNotifier(t *testing.T) {
	var out bytes.Buffer
	n := NewLoggerNotifier(logsvc.NewLoggerMock(&out))

	n.Notify(core.Notification{Title: "Code sent", Description: "Check your inbox.", Severity: core.SeveritySuccess})
	assert.Contains(t, out.String(), "[INFO] Code sent: Check your inbox.")

	out.Reset()
	n.Notify(core.Notification{Title: "Login failed", Description: "Nope.", Severity: core.SeverityError})
	assert.Contains(t, out.String(), "[WARN] Login failed: Nope.")
}
