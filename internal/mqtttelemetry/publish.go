// Package mqtttelemetry publishes channel reports to an MQTT broker, for
// sites that already aggregate device telemetry that way instead of (or in
// addition to) the local report directory.
package mqtttelemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/venkat-chanest/ofdm-chanest/internal/telemetry"
)

// Config names the broker and the topic reports are published under.
type Config struct {
	Host     string
	Port     int
	ClientID string
	Username string
	Password string
	Topic    string
}

// Publisher holds a persistent connection to one broker.
type Publisher struct {
	conn  mqtt.Client
	topic string
}

// Connect dials the broker and returns a ready Publisher. The underlying
// client reconnects on its own; callers only need to call Close once done.
func Connect(cfg Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetAutoReconnect(true)
	opts.ClientID = cfg.ClientID
	opts.Username = cfg.Username
	opts.Password = cfg.Password

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtttelemetry: connect: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtttelemetry: connect: %w", err)
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "ofdm-chanest/reports"
	}
	return &Publisher{conn: client, topic: topic}, nil
}

// Publish JSON-encodes a report and publishes it at QoS 1.
func (p *Publisher) Publish(r telemetry.ChannelReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("mqtttelemetry: marshal report: %w", err)
	}
	token := p.conn.Publish(p.topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker, waiting up to 250ms to flush.
func (p *Publisher) Close() {
	p.conn.Disconnect(250)
}
