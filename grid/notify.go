// ABOUTME: Notice levels and the Notifier the controller reports through
// ABOUTME: Surfaces render notices as toasts, flash messages or tool errors
package grid

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notice is one user-facing message.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices from a controller.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Recorder collects notices until drained.
type Recorder struct {
	notices []Notice
}

func (r *Recorder) Notify(n Notice) { r.notices = append(r.notices, n) }

// Drain returns and forgets the collected notices.
func (r *Recorder) Drain() []Notice {
	out := r.notices
	r.notices = nil
	return out
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

type discard struct{}

func (discard) Notify(Notice) {}
