package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gonum.org/v1/gonum/floats"

	"github.com/relabs-tech/scan_producer/internal/config"
	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
	"github.com/relabs-tech/scan_producer/internal/transport"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := transport.Connect(cfg.MQTTBroker, transport.ClientID(cfg.MQTTClientIDConsole))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// Subscribe to scans
	scanToken := client.Subscribe(cfg.TopicScan, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s scan.Scan
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: scan unmarshal error: %v", err)
			return
		}
		fmt.Println(formatScan(&s))
	})
	scanToken.Wait()
	if scanToken.Error() != nil {
		return scanToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicScan)

	// Subscribe to transforms
	tfToken := client.Subscribe(cfg.TopicTF, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var t tf.Stamped
		if err := json.Unmarshal(msg.Payload(), &t); err != nil {
			log.Printf("console: transform unmarshal error: %v", err)
			return
		}
		fmt.Println(formatTransform(t))
	})
	tfToken.Wait()
	if tfToken.Error() != nil {
		return tfToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicTF)

	// Wait for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err = waitForSignal(ctx, cancel)
	log.Println("console: shutting down")
	return err
}

func formatScan(s *scan.Scan) string {
	if len(s.Ranges) == 0 {
		return fmt.Sprintf("[SCAN] stamp=%d.%09d frame=%s n=0",
			s.Header.Stamp.Secs, s.Header.Stamp.Nsecs, s.Header.FrameID)
	}
	return fmt.Sprintf("[SCAN] stamp=%d.%09d frame=%s n=%d min=%.3f max=%.3f mean=%.3f",
		s.Header.Stamp.Secs, s.Header.Stamp.Nsecs, s.Header.FrameID,
		len(s.Ranges),
		floats.Min(s.Ranges), floats.Max(s.Ranges),
		floats.Sum(s.Ranges)/float64(len(s.Ranges)),
	)
}

func formatTransform(t tf.Stamped) string {
	v := t.Transform.Translation
	return fmt.Sprintf("[TF  ] stamp=%d.%09d %s -> %s x=%.3f y=%.3f z=%.3f",
		t.Header.Stamp.Secs, t.Header.Stamp.Nsecs, t.Header.FrameID, t.ChildFrameID,
		v.X, v.Y, v.Z,
	)
}
