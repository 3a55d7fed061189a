package ports

import "context"

// Notification is the payload handed to the transport collaborator. It names
// the recipient and the assessment context but carries no throttle state;
// deciding whether and when to send is the Notification Gate's job.
type Notification struct {
	RecipientEmail string
	RecipientName  string
	AssessmentID   string
	AssessmentName string
	RequestedBy    string
}

// Notifier is the outbound transport collaborator. The core only asks
// whether a transport is available and hands over accepted notifications.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, n Notification) error
}
