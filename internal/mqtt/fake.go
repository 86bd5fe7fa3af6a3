package mqtt

import "sync"

// FakePublisher records published events for test assertions. It is safe
// for use from the scheduler goroutine and the test at the same time.
type FakePublisher struct {
	mu sync.Mutex

	// Reminders contains all reminder events that were published.
	Reminders []ReminderEvent

	// ReminderPayloads contains the JSON payloads for reminders.
	ReminderPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishReminder.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReminder records the reminder.
func (f *FakePublisher) PublishReminder(event ReminderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatReminderPayload(event)
	if err != nil {
		return err
	}
	f.Reminders = append(f.Reminders, event)
	f.ReminderPayloads = append(f.ReminderPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// SetPublishError changes the error returned by PublishReminder.
func (f *FakePublisher) SetPublishError(err error) {
	f.mu.Lock()
	f.PublishError = err
	f.mu.Unlock()
}

// ReminderCount returns how many reminders were recorded.
func (f *FakePublisher) ReminderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Reminders)
}

// RemindersSnapshot returns a copy of the recorded reminders.
func (f *FakePublisher) RemindersSnapshot() []ReminderEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ReminderEvent(nil), f.Reminders...)
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reminders = nil
	f.ReminderPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
