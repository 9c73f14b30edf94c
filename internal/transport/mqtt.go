// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
)

// publishTimeout bounds how long a single publish may block the loop.
const publishTimeout = 2 * time.Second

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within publishTimeout.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// ClientID appends a short random suffix to base so that several instances
// can share a broker without kicking each other off.
func ClientID(base string) string {
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}

// Connect opens an MQTT connection to broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect to %s: %w", broker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s as %s", broker, clientID)
	return client, nil
}

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends scans and transforms as JSON on their MQTT topics.
type Publisher struct {
	client    Client
	scanTopic string
	tfTopic   string
}

// NewPublisher returns a Publisher writing scans to scanTopic and transforms
// to tfTopic.
func NewPublisher(client Client, scanTopic, tfTopic string) *Publisher {
	return &Publisher{client: client, scanTopic: scanTopic, tfTopic: tfTopic}
}

// PublishScan publishes s on the scan topic.
func (p *Publisher) PublishScan(s *scan.Scan) error {
	return p.publish(p.scanTopic, s)
}

// PublishTransform publishes t on the transform topic.
func (p *Publisher) PublishTransform(t tf.Stamped) error {
	return p.publish(p.tfTopic, t)
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, err)
	}
	return nil
}
