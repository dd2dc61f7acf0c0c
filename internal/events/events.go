// Package events publishes lifecycle events over MQTT so the frontend can
// live-update queue and automation views without polling. Publishing is
// best-effort: a missing broker disables the publisher instead of failing
// requests.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	client mqtt.Client
)

var connectHandler mqtt.OnConnectHandler = func(c mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(c mqtt.Client, err error) {
	log.Error().Err(err).Msg("MQTT connection lost")
}

// Init connects to the broker. An empty brokerURL leaves the publisher
// disabled; Publish becomes a no-op.
func Init(brokerURL, clientID string) error {
	if brokerURL == "" {
		log.Info().Msg("MQTT broker not configured, event publishing disabled")
		return nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetConnectRetry(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	mu.Lock()
	client = c
	mu.Unlock()
	return nil
}

// Event is the wire shape published to user topics.
type Event struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Publish sends an event to the user's topic. Failures are logged and
// swallowed; events are advisory, never part of request semantics. The
// broker acknowledgement is awaited off the caller's goroutine so request
// handlers never stall on a slow broker.
func Publish(userID int, eventType string, payload any) {
	mu.RLock()
	c := client
	mu.RUnlock()
	if c == nil {
		return
	}

	body, err := json.Marshal(Event{Type: eventType, At: time.Now().UTC(), Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		return
	}

	topic := fmt.Sprintf("deviflow/users/%d/events", userID)
	token := c.Publish(topic, 1, false, body)
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("failed to publish event")
		}
	}()
}

// Shutdown disconnects the client.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if client != nil {
		client.Disconnect(250)
		client = nil
	}
}
