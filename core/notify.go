package core

// Severities of a Notification.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityError   = "error"
)

type (
	// Notification is a user-visible message, rendered as a toast by presentation layers.
	Notification struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
	}

	// Notifier is any sink that can show notifications to the user.
	// Notify is fire-and-forget: it must not block on the user.
	Notifier interface {
		Notify(n Notification)
	}
)
