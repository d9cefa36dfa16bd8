package overlay

import "time"

// Toast kinds map to the shim's styling.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

const (
	defaultToastDuration = 3 * time.Second
	errorToastDuration   = 5 * time.Second
	maxToastChars        = 300
)

// Toast is the draw command for a transient notification.
type Toast struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

// NewToast builds a toast with the default duration for its kind.
// Messages are truncated so a misbehaving endpoint cannot fill the
// screen.
func NewToast(kind, message string) Toast {
	d := defaultToastDuration
	if kind == ToastError {
		d = errorToastDuration
	}
	if len(message) > maxToastChars {
		runes := []rune(message)
		if len(runes) > maxToastChars {
			message = string(runes[:maxToastChars]) + "…"
		}
	}
	return Toast{Kind: kind, Message: message, DurationMS: d.Milliseconds()}
}

// Info builds an informational toast.
func Info(message string) Toast { return NewToast(ToastInfo, message) }

// Success builds a success toast.
func Success(message string) Toast { return NewToast(ToastSuccess, message) }

// Error builds an error toast.
func Error(message string) Toast { return NewToast(ToastError, message) }
