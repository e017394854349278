// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue carrying outbound email work.
const NotificationQueueName = "notification.email"

// NotificationKind selects the email template applied by the consumer.
type NotificationKind string

const (
	// KindWelcome confirms a completed registration.
	KindWelcome NotificationKind = "welcome"
	// KindLoginAlert notifies the owner of a new sign-in.
	KindLoginAlert NotificationKind = "login_alert"
	// KindOTP delivers a one-time code. Unlike the other kinds, a
	// failed publish for this kind must surface to the caller: the
	// email is the only channel the code can reach the user through.
	KindOTP NotificationKind = "otp"
)

// NotificationEvent is published once per outbound email. It carries
// everything the consumer needs to render and send the message without
// querying the primary database.
type NotificationEvent struct {
	Kind       NotificationKind `json:"kind"`
	Email      string           `json:"email"`
	Username   string           `json:"username,omitempty"`
	FirstName  string           `json:"first_name,omitempty"`
	Code       string           `json:"code,omitempty"`
	Purpose    string           `json:"purpose,omitempty"`
	OccurredAt string           `json:"occurred_at"`
}
