// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/scan_producer/internal/config"
	"github.com/relabs-tech/scan_producer/internal/generator"
	"github.com/relabs-tech/scan_producer/internal/params"
	"github.com/relabs-tech/scan_producer/internal/transport"
)

// RunScanProducer publishes dummy scans and transforms until SIGINT/SIGTERM.
// paramsPath overrides PARAMS_FILE from the config when not empty.
func RunScanProducer(paramsPath string) error {
	cfg := config.Get()

	store, err := loadParams(paramsPath, cfg.ParamsFile)
	if err != nil {
		return err
	}

	client, err := transport.Connect(cfg.MQTTBroker, transport.ClientID(cfg.MQTTClientIDProducer))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := store.Subscribe(client, cfg.TopicParams); err != nil {
		return err
	}

	pub := transport.NewPublisher(client, cfg.TopicScan, cfg.TopicTF)
	gen := generator.New(store, pub, generator.Options{
		Interval: cfg.TickInterval(),
		LogTicks: cfg.LogTicks,
	})

	log.Printf("scan producer: publishing scans on %s and transforms on %s at %s",
		cfg.TopicScan, cfg.TopicTF, cfg.ScanRate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return runUntilSignal(ctx, cancel, gen.Run)
}

// loadParams builds the parameter store from path, or from fallback when
// path is empty. With neither set the store yields the defaults.
func loadParams(path, fallback string) (*params.Store, error) {
	store := params.NewStore()
	if path == "" {
		path = fallback
	}
	if path != "" {
		if err := store.LoadFile(path); err != nil {
			return nil, err
		}
		log.Printf("params: loaded %s", path)
	}
	log.Printf("params: initial values %+v", store.Snapshot())
	return store, nil
}

// runUntilSignal runs task next to a SIGINT/SIGTERM listener. A signal
// cancels the shared context; the call returns once task has returned.
func runUntilSignal(ctx context.Context, cancel context.CancelFunc, task func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return task(gctx)
	})
	g.Go(func() error {
		return waitForSignal(gctx, cancel)
	})
	return g.Wait()
}

func waitForSignal(ctx context.Context, cancel context.CancelFunc) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		cancel()
	case <-ctx.Done():
	}
	return nil
}
