package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/scan_producer/internal/config"
	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
	"github.com/relabs-tech/scan_producer/internal/transport"
)

// viewer keeps the latest scan and transform seen on MQTT and serves them.
type viewer struct {
	mu       sync.RWMutex
	lastScan *scan.Scan
	lastTF   tf.Stamped
	haveTF   bool

	hub         *streamHub
	previewSize int
}

func newViewer(previewSize int) *viewer {
	return &viewer{hub: newStreamHub(), previewSize: previewSize}
}

func (v *viewer) onScan(payload []byte) error {
	var s scan.Scan
	if err := json.Unmarshal(payload, &s); err != nil {
		return fmt.Errorf("scan unmarshal: %w", err)
	}
	v.mu.Lock()
	v.lastScan = &s
	v.mu.Unlock()

	v.hub.broadcast(StreamMessage{Type: "scan", Data: &s})
	return nil
}

func (v *viewer) onTransform(payload []byte) error {
	var t tf.Stamped
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("transform unmarshal: %w", err)
	}
	v.mu.Lock()
	v.lastTF = t
	v.haveTF = true
	v.mu.Unlock()

	v.hub.broadcast(StreamMessage{Type: "transform", Data: t})
	return nil
}

func (v *viewer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", v.handleScan)
	mux.HandleFunc("/api/transform", v.handleTransform)
	mux.HandleFunc("/api/scan.png", v.handlePreview)
	mux.Handle("/ws", v.hub)

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func (v *viewer) handleScan(w http.ResponseWriter, r *http.Request) {
	v.mu.RLock()
	s := v.lastScan
	v.mu.RUnlock()

	if s == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s)
}

func (v *viewer) handleTransform(w http.ResponseWriter, r *http.Request) {
	v.mu.RLock()
	t, ok := v.lastTF, v.haveTF
	v.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, t)
}

func (v *viewer) handlePreview(w http.ResponseWriter, r *http.Request) {
	v.mu.RLock()
	s := v.lastScan
	t := tf.Transform{Rotation: tf.Identity}
	if v.haveTF {
		t = v.lastTF.Transform
	}
	v.mu.RUnlock()

	if s == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := writeScanPNG(&buf, s, t, v.previewSize); err != nil {
		log.Printf("web: preview encode error: %v", err)
		http.Error(w, "preview failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("web: preview write error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// subscribePayload routes every message on topic to handle, logging
// handler errors.
func subscribePayload(client mqtt.Client, topic string, handle func([]byte) error) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := handle(msg.Payload()); err != nil {
			log.Printf("web: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", topic)
	return nil
}

func RunWeb() error {
	cfg := config.Get()
	v := newViewer(cfg.PreviewSize)

	client, err := transport.Connect(cfg.MQTTBroker, transport.ClientID(cfg.MQTTClientIDWeb))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribePayload(client, cfg.TopicScan, v.onScan); err != nil {
		return err
	}
	if err := subscribePayload(client, cfg.TopicTF, v.onTransform); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           v.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return runUntilSignal(ctx, cancel, func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			log.Printf("web server listening on %s", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		v.hub.closeAll()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdownCtx)
	})
}
