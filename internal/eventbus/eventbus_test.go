package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish(ScenarioEvent{ScenarioID: "sc-1", Change: ChangeAllocations})
	e := <-ch
	if e.ScenarioID != "sc-1" || e.Change != ChangeAllocations {
		t.Fatalf("unexpected event %+v", e)
	}
	bus.Unsubscribe(ch)
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("expected ch2 closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	for i := 0; i < 20; i++ {
		bus.Publish(ScenarioEvent{ScenarioID: "sc-1", Change: ChangePriorities})
	}
	// Buffered at 8; the rest are dropped rather than blocking the writer.
	if len(ch) != 8 {
		t.Fatalf("expected 8 buffered events, got %d", len(ch))
	}
}
