package mqtt

import "log"

// defaultOutboxSize bounds how many messages are held while the broker is
// unreachable. A day of a busy timer list fits comfortably.
const defaultOutboxSize = 256

// queuedMsg is a serialized message waiting for the connection to return.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO that drops the oldest message when full.
// Not safe for concurrent use; RealPublisher holds its mutex around it.
type outbox struct {
	buf     []queuedMsg
	head    int // next write position
	count   int
	dropped int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity <= 0 {
		capacity = defaultOutboxSize
	}
	return &outbox{buf: make([]queuedMsg, capacity)}
}

func (o *outbox) push(msg queuedMsg) {
	capacity := len(o.buf)
	if o.count == capacity {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", capacity)
		}
		o.dropped++
		// head points at the oldest entry when full
		o.buf[o.head] = msg
		o.head = (o.head + 1) % capacity
		return
	}
	o.buf[o.head] = msg
	o.head = (o.head + 1) % capacity
	o.count++
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []queuedMsg {
	if o.count == 0 {
		return nil
	}
	capacity := len(o.buf)
	out := make([]queuedMsg, o.count)
	start := (o.head - o.count + capacity) % capacity
	for i := range out {
		out[i] = o.buf[(start+i)%capacity]
		o.buf[(start+i)%capacity] = queuedMsg{}
	}
	if o.dropped > 0 {
		log.Printf("mqtt: %d queued messages were dropped while offline", o.dropped)
	}
	o.count = 0
	o.head = 0
	o.dropped = 0
	return out
}

func (o *outbox) len() int {
	return o.count
}
