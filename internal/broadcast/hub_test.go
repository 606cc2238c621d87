package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

type testSubscriber struct {
	mu       sync.Mutex
	messages [][]byte
	capacity int
}

func newTestSubscriber(capacity int) *testSubscriber {
	return &testSubscriber{capacity: capacity}
}

func (s *testSubscriber) Deliver(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity > 0 && len(s.messages) >= s.capacity {
		return false
	}
	s.messages = append(s.messages, message)
	return true
}

func (s *testSubscriber) received() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, 0, len(s.messages))
	for _, raw := range s.messages {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

func TestPublishRoutesByTopic(t *testing.T) {
	hub := NewHub(nil)

	aapl := newTestSubscriber(0)
	googl := newTestSubscriber(0)
	hub.Subscribe(aapl, "prices/AAPL")
	hub.Subscribe(googl, "prices/GOOGL")

	hub.Publish([]string{"prices", "prices/AAPL"}, map[string]string{"symbol": "AAPL"})

	if got := len(aapl.received()); got != 1 {
		t.Errorf("AAPL subscriber received %d messages, want 1", got)
	}
	if got := len(googl.received()); got != 0 {
		t.Errorf("GOOGL subscriber received %d messages, want 0", got)
	}
}

func TestGlobalAndScopedSubscriberGetsBoth(t *testing.T) {
	hub := NewHub(nil)

	sub := newTestSubscriber(0)
	hub.Subscribe(sub, "prices", "prices/AAPL")

	hub.Publish([]string{"prices", "prices/AAPL"}, map[string]string{"symbol": "AAPL"})

	envs := sub.received()
	if len(envs) != 2 {
		t.Fatalf("subscriber received %d messages, want 2", len(envs))
	}
	topics := map[string]bool{}
	for _, env := range envs {
		topics[env.Topic] = true
	}
	if !topics["prices"] || !topics["prices/AAPL"] {
		t.Errorf("received topics = %v, want both prices and prices/AAPL", topics)
	}
}

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"prices", "prices"},
		{"Prices", "prices"},
		{"prices/aapl", "prices/AAPL"},
		{"PRICES/aapl", "prices/AAPL"},
		{" alerts ", "alerts"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTopic(tt.raw); got != tt.want {
			t.Errorf("NormalizeTopic(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	hub := NewHub(nil)

	sub := newTestSubscriber(0)
	hub.Subscribe(sub, "prices/AAPL")
	hub.Subscribe(sub, "prices/aapl")

	hub.Publish([]string{"prices/AAPL"}, "tick")

	if got := len(sub.received()); got != 1 {
		t.Errorf("subscriber received %d messages, want 1", got)
	}
}

func TestUnregisterRemovesAllSubscriptions(t *testing.T) {
	hub := NewHub(nil)

	sub := newTestSubscriber(0)
	hub.Subscribe(sub, "prices", "prices/AAPL", "alerts")

	hub.Unregister(sub)

	hub.Publish([]string{"prices", "prices/AAPL", "alerts"}, "tick")

	if got := len(sub.received()); got != 0 {
		t.Errorf("unregistered subscriber received %d messages, want 0", got)
	}
	for _, topic := range []string{"prices", "prices/AAPL", "alerts"} {
		if n := hub.SubscriberCount(topic); n != 0 {
			t.Errorf("topic %q still has %d subscribers", topic, n)
		}
	}
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(nil)

	slow := newTestSubscriber(1)
	fast := newTestSubscriber(0)
	hub.Subscribe(slow, "prices")
	hub.Subscribe(fast, "prices")

	for i := 0; i < 5; i++ {
		hub.Publish([]string{"prices"}, i)
	}

	if got := len(fast.received()); got != 5 {
		t.Errorf("fast subscriber received %d messages, want 5", got)
	}
	if got := len(slow.received()); got != 1 {
		t.Errorf("slow subscriber received %d messages, want 1 (rest dropped)", got)
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sub := newTestSubscriber(0)
			topic := fmt.Sprintf("prices/SYM%d", n)
			for j := 0; j < 100; j++ {
				hub.Subscribe(sub, topic)
				hub.Publish([]string{topic}, j)
				hub.Unsubscribe(sub, topic)
			}
			hub.Unregister(sub)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		topic := fmt.Sprintf("prices/SYM%d", i)
		if n := hub.SubscriberCount(topic); n != 0 {
			t.Errorf("topic %q still has %d subscribers after cleanup", topic, n)
		}
	}
}
