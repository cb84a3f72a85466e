// Command dutycycle-sensor watches a GPIO input, measures the duty cycle of
// the signal over fixed windows, and publishes each measurement to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/dutycycle-sensor/internal/config"
	"github.com/sweeney/dutycycle-sensor/internal/gpio"
	"github.com/sweeney/dutycycle-sensor/internal/logic"
	"github.com/sweeney/dutycycle-sensor/internal/mqtt"
	"github.com/sweeney/dutycycle-sensor/internal/status"
	"github.com/sweeney/dutycycle-sensor/internal/web"
)

func main() {
	cfg, fl, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, fl.PrintState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	// Initialize GPIO
	watcher, err := gpio.NewRealWatcher(cfg.Chip, cfg.Pin, cfg.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer watcher.Close()

	// Print state mode
	if printState {
		level, err := watcher.Level()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("%s pin %d: %s\n", cfg.Chip, cfg.Pin, level)
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		TopicPrefix: cfg.TopicPrefix,
		BufferSize:  cfg.BufferSize,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Chip:        cfg.Chip,
		Pin:         cfg.Pin,
		WindowMs:    cfg.Window.Milliseconds(),
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		TopicPrefix: cfg.TopicPrefix,
		HTTPAddr:    cfg.HTTPAddr,
	})
	readNetwork := func() *status.NetworkInfo {
		return readNetworkInfo(config.Env(cfg.EnvFile))
	}
	if net := readNetwork(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: %s pin=%d window=%v poll=%v broker=%s heartbeat=%v",
		cfg.Chip, cfg.Pin, cfg.Window, cfg.Poll, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll.Duration)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loop := loopConfig{
		window:      cfg.Window.Duration,
		heartbeat:   cfg.Heartbeat.Duration,
		now:         time.Now,
		newID:       uuid.NewString,
		readNetwork: readNetwork,
	}
	return runLoop(watcher, publisher, publisher, tracker, loop, ticker.C, sigCh)
}

// loopConfig holds runLoop settings and injectable dependencies.
type loopConfig struct {
	window      time.Duration
	heartbeat   time.Duration
	now         func() time.Time
	newID       func() string
	readNetwork func() *status.NetworkInfo
}

func runLoop(watcher gpio.Watcher, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg loopConfig, tick <-chan time.Time, sig <-chan os.Signal) error {
	sampler := logic.NewSampler(cfg.window, logic.Supported(), cfg.now())

	refresh := func() {
		if tracker == nil {
			return
		}
		level, known := sampler.Level()
		tracker.Update(level, known, sampler.Counts())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: cfg.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			batch, err := watcher.Drain()
			// read after draining so the window end is not before its edges
			t := cfg.now()
			if err != nil {
				log.Printf("gpio drain error: %v", err)
				continue
			}
			sampler.Add(batch)

			if report := sampler.Flush(t); report != nil {
				id := cfg.newID()
				if dc, ok := report.Values[logic.DutyCycle]; ok {
					log.Printf("window %s: duty_cycle=%.3f%% periods=%d transitions=%d", id, dc, report.Totals.Periods, report.Transitions)
				} else {
					log.Printf("window %s: no complete period (transitions=%d)", id, report.Transitions)
				}
				if err := publisher.Publish(id, *report); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
				if tracker != nil {
					tracker.SetReport(id, *report)
				}
			}

			// Check for heartbeat
			if hbData := sampler.CheckHeartbeat(t, cfg.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v windows=%d measured=%d absent=%d transitions=%d",
					hbData.Uptime, hbData.Counts.Windows, hbData.Counts.Measured, hbData.Counts.Absent, hbData.Counts.Transitions)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if cfg.readNetwork != nil {
						if net := cfg.readNetwork(); net != nil {
							tracker.SetNetwork(net)
						}
					}
					refresh()
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			refresh()
		}
	}
}

func readNetworkInfo(getenv func(string) string) *status.NetworkInfo {
	s := getenv(config.EnvNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       getenv(config.EnvNetworkType),
		IP:         getenv(config.EnvNetworkIP),
		Status:     s,
		Gateway:    getenv(config.EnvNetworkGateway),
		WifiStatus: getenv(config.EnvNetworkWifiStatus),
		SSID:       getenv(config.EnvNetworkWifiSSID),
	}
}
