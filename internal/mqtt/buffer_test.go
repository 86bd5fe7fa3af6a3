package mqtt

import (
	"testing"
)

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10)
	if got := o.drain(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestOutboxPushAndDrain(t *testing.T) {
	o := newOutbox(10)
	for i := 0; i < 5; i++ {
		o.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if o.len() != 5 {
		t.Fatalf("len = %d, want 5", o.len())
	}

	got := o.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := range got {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}
	if o.drain() != nil {
		t.Error("second drain should be empty")
	}
}

func TestOutboxOverflowKeepsNewest(t *testing.T) {
	const capacity = 5
	o := newOutbox(capacity)
	for i := 0; i < capacity+3; i++ {
		o.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if o.dropped != 3 {
		t.Errorf("dropped = %d, want 3", o.dropped)
	}

	got := o.drain()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	for i := range got {
		if want := byte(i + 3); got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
	if o.dropped != 0 {
		t.Error("drain should reset the drop count")
	}
}

func TestOutboxReuseAfterDrain(t *testing.T) {
	o := newOutbox(3)
	o.push(queuedMsg{payload: []byte{1}})
	o.push(queuedMsg{payload: []byte{2}})
	o.drain()

	for i := 10; i < 14; i++ {
		o.push(queuedMsg{payload: []byte{byte(i)}})
	}
	got := o.drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i, want := range []byte{11, 12, 13} {
		if got[i].payload[0] != want {
			t.Errorf("item %d: got %d, want %d", i, got[i].payload[0], want)
		}
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(2)
	o.push(queuedMsg{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})
	got := o.drain()
	if got[0].topic != TopicSystem || got[0].qos != 1 || !got[0].retained {
		t.Errorf("fields lost: %+v", got[0])
	}
}

func TestOutboxDefaultCapacity(t *testing.T) {
	o := newOutbox(0)
	if len(o.buf) != defaultOutboxSize {
		t.Errorf("capacity = %d, want %d", len(o.buf), defaultOutboxSize)
	}
}
