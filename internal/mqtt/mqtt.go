// Package mqtt publishes reminders and daemon lifecycle events to a broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicReminders carries one message per fired reminder.
const TopicReminders = "timely/reminders"

// TopicSystem carries lifecycle events and heartbeats.
const TopicSystem = "timely/system"

// Lifecycle event names.
const (
	EventStartup   = "STARTUP"
	EventShutdown  = "SHUTDOWN"
	EventHeartbeat = "HEARTBEAT"
	EventOffline   = "OFFLINE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishReminder sends a fired reminder. An error means the reminder
	// was not delivered or queued and should be retried.
	PublishReminder(event ReminderEvent) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReminderEvent is one reminder firing in one cycle of a timer.
type ReminderEvent struct {
	Timestamp  time.Time
	TimerID    string
	TimerName  string
	ReminderID string
	Message    string
	Cycle      int64
	Silent     bool
	Vibrate    bool
}

// Title is the notification title shown to the user.
func (e ReminderEvent) Title() string {
	return "Timely: " + e.TimerName
}

// Tag groups notifications so a newer firing of the same reminder replaces
// the previous one.
func (e ReminderEvent) Tag() string {
	return "reminder-" + e.ReminderID
}

// ReminderPayload is the JSON body published on TopicReminders.
type ReminderPayload struct {
	Notification NotificationPayload `json:"notification"`
}

// NotificationPayload contains the notification fields.
type NotificationPayload struct {
	Timestamp string       `json:"timestamp"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Tag       string       `json:"tag"`
	Silent    bool         `json:"silent"`
	Vibrate   bool         `json:"vibrate"`
	Timer     TimerPayload `json:"timer"`
	Reminder  string       `json:"reminder_id"`
	Cycle     int64        `json:"cycle"`
}

// TimerPayload identifies the timer a reminder belongs to.
type TimerPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FormatReminderPayload creates the JSON payload for a reminder.
func FormatReminderPayload(event ReminderEvent) ([]byte, error) {
	payload := ReminderPayload{
		Notification: NotificationPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Title:     event.Title(),
			Body:      event.Message,
			Tag:       event.Tag(),
			Silent:    event.Silent,
			Vibrate:   event.Vibrate,
			Timer:     TimerPayload{ID: event.TimerID, Name: event.TimerName},
			Reminder:  event.ReminderID,
			Cycle:     event.Cycle,
		},
	}
	return json.Marshal(payload)
}

// SystemEvent represents a lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted JSON; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// SystemPayload is the JSON body for a simple system event that does not
// carry a status snapshot, such as the OFFLINE will.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
