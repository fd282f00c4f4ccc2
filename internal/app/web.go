// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earable_monitor/internal/config"
	"github.com/relabs-tech/earable_monitor/internal/earable"
	"github.com/relabs-tech/earable_monitor/internal/monitor"
)

// broadcastInterval caps websocket pushes at the browser's redraw cadence.
const broadcastInterval = 50 * time.Millisecond

// newMonitor builds the monitor described by cfg.
func newMonitor(cfg *config.Config, observers ...monitor.Observer) (*monitor.Monitor, error) {
	m := monitor.New(monitor.Options{
		Capacity:  cfg.WindowCapacity,
		Smoothing: cfg.SmoothingAlpha,
		Unwrap:    cfg.UnwrapAngles,
	}, observers...)

	side, err := earable.ParseSide(cfg.SelectedSide)
	if err != nil {
		return nil, err
	}
	if err := m.Select(side); err != nil {
		return nil, err
	}
	return m, nil
}

// newMux wires the JSON API, websocket, metrics and static files.
func newMux(cfg *config.Config, m *monitor.Monitor, hub *Hub, metrics *Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	newAPI(mux, m)
	mux.Handle("/ws", hub)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.Handle("/", http.FileServer(http.Dir(cfg.WebStaticDir)))
	return mux
}

// RunDashboard subscribes to both earables over MQTT and serves charts and
// orientation over HTTP until SIGINT/SIGTERM.
func RunDashboard() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not initialized")
	}

	var (
		observers []monitor.Observer
		metrics   *Metrics
	)
	if cfg.MetricsEnabled {
		metrics = NewMetrics()
		observers = append(observers, metrics)
	}

	m, err := newMonitor(cfg, observers...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDashboard).
		SetAutoReconnect(true).
		SetOrderMatters(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Feed both devices
	in := &ingester{m: m, cfg: cfg, client: client}
	if err := in.subscribe(); err != nil {
		return err
	}
	m.OnSelect(func(side earable.Side) {
		publishSelection(client, cfg.TopicSelected, side)
	})
	publishSelection(client, cfg.TopicSelected, m.Selected())

	// 3) Websocket hub
	var onCount func(int)
	if metrics != nil {
		onCount = metrics.ClientsChanged
	}
	hub := NewHub(m, broadcastInterval, onCount)
	go hub.Run(ctx)

	// 4) mDNS
	if cfg.MDNSEnabled {
		shutdown, err := advertise(cfg.MDNSInstance, cfg.WebServerPort)
		if err != nil {
			log.Printf("web: %v", err)
		} else {
			defer shutdown()
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           newMux(cfg, m, hub, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("web: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
