package platform

import "time"

// MeetingDetails is the platform's metadata for one online meeting
type MeetingDetails struct {
	Subject     string     `json:"subject"`
	OrganizerID string     `json:"organizer_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	ChatID      string     `json:"chat_id"`
}

// Participant is one attendee as reported by the platform roster
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	JoinTime time.Time `json:"join_time"`
}

// Subscription is a time-boxed change-notification subscription handle
type Subscription struct {
	ID        string    `json:"id"`
	Resource  string    `json:"resource"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CardSection is one block of a rich notification card
type CardSection struct {
	Heading string   `json:"heading,omitempty"`
	Text    string   `json:"text,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Card is a rich private-notification payload
type Card struct {
	Title    string        `json:"title"`
	Sections []CardSection `json:"sections,omitempty"`
}

// ChangeNotification is one inbound webhook notification from the platform
type ChangeNotification struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientState    string `json:"clientState"`
	ChangeType     string `json:"changeType"`
	ResourceURI    string `json:"resource"`
}

// NotificationEnvelope wraps a batch of change notifications
type NotificationEnvelope struct {
	Value []ChangeNotification `json:"value"`
}
