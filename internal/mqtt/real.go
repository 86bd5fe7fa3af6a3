package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Reminders go out with
// QoS 1. While the connection is down messages are held in an outbox and
// replayed, oldest first, when paho reconnects.
type RealPublisher struct {
	client paho.Client

	mu     sync.Mutex
	outbox *outbox
	now    func() time.Time
}

// NewRealPublisher connects to broker. The broker is told to publish a
// retained OFFLINE event on TopicSystem if the daemon vanishes.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{outbox: newOutbox(defaultOutboxSize), now: time.Now}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: EventOffline, Reason: "MQTT_DISCONNECT"})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// newPublisherWithClient wraps an existing client.
func newPublisherWithClient(client paho.Client, capacity int) *RealPublisher {
	return &RealPublisher{client: client, outbox: newOutbox(capacity), now: time.Now}
}

// PublishReminder sends a reminder notification.
func (p *RealPublisher) PublishReminder(event ReminderEvent) error {
	payload, err := FormatReminderPayload(event)
	if err != nil {
		return fmt.Errorf("format reminder payload: %w", err)
	}
	return p.publish(TopicReminders, 1, false, payload)
}

// PublishSystem sends a lifecycle event.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// publish sends the message, or queues it when the client is offline.
// A queued message is reported as success.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.outbox.push(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// onConnect replays the outbox. paho calls it on the first connection and
// after every automatic reconnect.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	queued := p.outbox.drain()
	p.mu.Unlock()

	if len(queued) == 0 {
		log.Printf("mqtt: connected")
		return
	}
	log.Printf("mqtt: connected, replaying %d queued messages", len(queued))
	for _, m := range queued {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			log.Printf("mqtt: replay to %s failed, requeueing", m.topic)
			p.mu.Lock()
			p.outbox.push(m)
			p.mu.Unlock()
		}
	}
}

// Queued returns how many messages wait for the connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
