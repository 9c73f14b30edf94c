// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package params

import (
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MessageHandler returns an MQTT handler that stores each message published
// on prefix/<name> under <name>, with the trimmed payload text as value.
func (s *Store) MessageHandler(prefix string) mqtt.MessageHandler {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	return func(_ mqtt.Client, msg mqtt.Message) {
		name, ok := strings.CutPrefix(msg.Topic(), prefix)
		if !ok || name == "" || strings.Contains(name, "/") {
			log.Printf("params: ignoring update on topic %q", msg.Topic())
			return
		}
		value := strings.TrimSpace(string(msg.Payload()))
		s.Set(name, value)
		log.Printf("params: %s set to %q", name, value)
	}
}

// Subscribe feeds runtime updates from prefix/+ into the store.
func (s *Store) Subscribe(client mqtt.Client, prefix string) error {
	topic := strings.TrimSuffix(prefix, "/") + "/+"
	token := client.Subscribe(topic, 0, s.MessageHandler(prefix))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Printf("params: subscribed to MQTT topic %s", topic)
	return nil
}
