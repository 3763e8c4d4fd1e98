// Package notify declares the outbound messaging contract the workflows use
// to reach users and admins. The Telegram layer provides the real
// implementation; tests plug in fakes.
package notify

// Notifier delivers plain-text notifications. Implementations must not block
// workflow completion on delivery failures.
type Notifier interface {
	NotifyUser(userID int64, text string)
	NotifyAdmins(text string)
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) NotifyUser(int64, string) {}
func (Discard) NotifyAdmins(string)      {}
