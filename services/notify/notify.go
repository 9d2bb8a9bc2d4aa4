package notifysvc

import (
	"fmt"
	"io"
	"sync"

	"github.com/labstack/gommon/color"

	"github.com/trezcool/shule/core"
)

var (
	_ core.Notifier = (*consoleNotifier)(nil)
	_ core.Notifier = (*Recorder)(nil)
	_ core.Notifier = (*loggerNotifier)(nil)
)

type consoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
	clr *color.Color
}

// NewConsoleNotifier prints notifications to out, coloured by severity unless noColor is set.
func NewConsoleNotifier(out io.Writer, noColor bool) core.Notifier {
	clr := color.New()
	clr.SetOutput(out)
	if noColor {
		clr.Disable()
	}
	return &consoleNotifier{out: out, clr: clr}
}

func (n *consoleNotifier) Notify(notif core.Notification) {
	var title string
	switch notif.Severity {
	case core.SeveritySuccess:
		title = n.clr.Green(notif.Title, color.B)
	case core.SeverityError:
		title = n.clr.Red(notif.Title, color.B)
	default:
		title = n.clr.Cyan(notif.Title, color.B)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.out, "%s: %s\n", title, notif.Description)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	notes []core.Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(notif core.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, notif)
}

// Notifications returns a copy of the recorded notifications, oldest first.
func (r *Recorder) Notifications() []core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	notes := make([]core.Notification, len(r.notes))
	copy(notes, r.notes)
	return notes
}

// Last returns the most recent notification.
func (r *Recorder) Last() (core.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return core.Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}

type loggerNotifier struct {
	logger core.Logger
}

// NewLoggerNotifier forwards notifications to the logger: failures at warn level, the rest at info level.
// A rejected login is a user outcome, not an application error.
func NewLoggerNotifier(logger core.Logger) core.Notifier {
	return &loggerNotifier{logger: logger}
}

func (n *loggerNotifier) Notify(notif core.Notification) {
	msg := fmt.Sprintf("%s: %s", notif.Title, notif.Description)
	if notif.Severity == core.SeverityError {
		n.logger.Warn(msg)
		return
	}
	n.logger.Info(msg)
}
