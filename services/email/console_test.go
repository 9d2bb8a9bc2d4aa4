package emailsvc

import (
	"bytes"
	"io"
	"log"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/services/logger"
)

func TestConsoleService_SendMessage(t *testing.T) {
	ResetSentMessages()
	defer ResetSentMessages()

	var out bytes.Buffer
	svc := consoleService{
		from:       mail.Address{Name: "Shule", Address: "noreply@shule.test"},
		subjPrefix: "[Shule] ",
		out:        log.New(&out, "", 0),
		logger:     logsvc.NewLoggerMock(io.Discard),
	}

	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
	}{
		{
			name:     "plain text",
			msg:      core.EmailMessage{To: []mail.Address{{Address: "jane@school.test"}}, Subject: "Hello", BodyStr: "Hi Jane"},
			wantSent: true,
		},
		{
			name: "no recipients",
			msg:  core.EmailMessage{Subject: "Hello", BodyStr: "Hi"},
		},
		{
			name: "no content",
			msg:  core.EmailMessage{To: []mail.Address{{Address: "jane@school.test"}}, Subject: "Hello"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			ResetSentMessages()

			msg := tt.msg
			svc.sendMessage(&msg)

			last, sent := LastSentMessage()
			assert.Equal(t, tt.wantSent, sent)
			if !tt.wantSent {
				assert.Empty(t, out.String())
				return
			}
			require.Equal(t, "Hello", last.Subject)
			assert.Contains(t, out.String(), "From: \"Shule\" <noreply@shule.test>\r\n")
			assert.Contains(t, out.String(), "Subject: [Shule] Hello\r\n")
			assert.Contains(t, out.String(), "To: <jane@school.test>\r\n")
			assert.Contains(t, out.String(), "Content-Type: multipart/alternative; boundary=")
			assert.Contains(t, out.String(), "Hi Jane\r\n")
			assert.NotContains(t, out.String(), "text/html")
		})
	}
}
