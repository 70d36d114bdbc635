// Package notify tells the status bar renderer that a fresh snapshot is on
// disk.
package notify

// Result is the outcome of a single delivery attempt.
type Result int

const (
	Delivered Result = iota
	// NotFound means the target process no longer exists.
	NotFound
)

func (r Result) String() string {
	if r == Delivered {
		return "delivered"
	}
	return "not-found"
}

// Notifier delivers a refresh request to one renderer process.
type Notifier interface {
	Notify(pid int) (Result, error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(pid int) (Result, error)

func (f NotifierFunc) Notify(pid int) (Result, error) { return f(pid) }
