package events

import "testing"

func TestBus_FanOut(t *testing.T) {
	b := NewBus(4)
	a, cancelA := b.Subscribe()
	c, cancelC := b.Subscribe()
	defer cancelA()
	defer cancelC()

	if n := b.Publish(Event{Kind: EventTicketChanged, ID: "t1"}); n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if evt := <-a; evt.ID != "t1" || evt.Kind != EventTicketChanged {
		t.Fatalf("unexpected event on a: %+v", evt)
	}
	if evt := <-c; evt.ID != "t1" {
		t.Fatalf("unexpected event on c: %+v", evt)
	}
}

func TestBus_DropsWhenSubscriberFull(t *testing.T) {
	b := NewBus(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	if n := b.Publish(Event{Kind: EventMessageAdded, ID: "m1"}); n != 1 {
		t.Fatalf("first publish should be delivered")
	}
	if n := b.Publish(Event{Kind: EventMessageAdded, ID: "m2"}); n != 0 {
		t.Fatalf("publish to a full subscriber must not block or deliver")
	}
	if evt := <-ch; evt.ID != "m1" {
		t.Fatalf("expected m1, got %s", evt.ID)
	}
}

func TestBus_CancelAndClose(t *testing.T) {
	b := NewBus(2)
	ch, cancel := b.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}

	live, _ := b.Subscribe()
	b.Close()
	b.Close()
	if _, ok := <-live; ok {
		t.Fatalf("expected closed channel after Close")
	}
	if n := b.Publish(Event{Kind: EventSessionChanged}); n != 0 {
		t.Fatalf("publish after close delivered %d", n)
	}

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribe after close should yield a closed channel")
	}
}

func TestBus_NilPublish(t *testing.T) {
	var b *Bus
	if n := b.Publish(Event{Kind: EventSessionChanged}); n != 0 {
		t.Fatalf("nil bus should deliver nothing")
	}
}
