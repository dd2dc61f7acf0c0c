package events

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// stuckToken never completes until released, standing in for a broker that
// is slow to acknowledge a QoS 1 publish.
type stuckToken struct {
	release chan struct{}
}

func (t *stuckToken) Wait() bool {
	<-t.release
	return true
}

func (t *stuckToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.release:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *stuckToken) Done() <-chan struct{} { return t.release }
func (t *stuckToken) Error() error          { return nil }

// stubClient records publishes and hands back the stuck token. The embedded
// interface panics on anything else.
type stubClient struct {
	mqtt.Client

	token     *stuckToken
	published chan string
}

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published <- topic
	return c.token
}

func TestPublishDoesNotBlockOnBrokerAck(t *testing.T) {
	stub := &stubClient{
		token:     &stuckToken{release: make(chan struct{})},
		published: make(chan string, 1),
	}
	mu.Lock()
	client = stub
	mu.Unlock()
	defer func() {
		close(stub.token.release)
		mu.Lock()
		client = nil
		mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		Publish(7, "sale.completed", map[string]int{"id": 42})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked waiting for the broker acknowledgement")
	}

	select {
	case topic := <-stub.published:
		if topic != "deviflow/users/7/events" {
			t.Fatalf("published to %q, want deviflow/users/7/events", topic)
		}
	case <-time.After(time.Second):
		t.Fatal("event never handed to the client")
	}
}

func TestPublishWithoutBrokerIsNoOp(t *testing.T) {
	mu.Lock()
	client = nil
	mu.Unlock()

	// must return immediately and touch nothing
	Publish(7, "sale.completed", nil)
}
