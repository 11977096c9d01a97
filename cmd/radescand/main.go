// Command radescand runs the Radescan/Umirs radar driver as a standalone
// process: it loads a YAML config, wires the codec/decoder/ping/connection
// manager stack, exposes Prometheus metrics over HTTP, and optionally
// republishes decoded events to MQTT. Flag parsing and signal-driven
// graceful shutdown follow the teacher's main.go.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/radescan-driver/internal/config"
	"github.com/cwsl/radescan-driver/internal/connmgr"
	"github.com/cwsl/radescan-driver/internal/eventsink"
	"github.com/cwsl/radescan-driver/internal/eventsink/mqttsink"
	"github.com/cwsl/radescan-driver/internal/healthsample"
	"github.com/cwsl/radescan-driver/internal/metrics"
	"github.com/cwsl/radescan-driver/internal/ping"
	"github.com/cwsl/radescan-driver/internal/protocol"
	"github.com/cwsl/radescan-driver/internal/queue"
	"github.com/cwsl/radescan-driver/internal/state"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	metricsListen := flag.String("metrics-listen", ":9090", "Address for the /metrics HTTP endpoint")
	flag.Parse()

	logger := log.New(os.Stderr, "radescand: ", log.LstdFlags)

	cfg, err := config.Load(*configFile, logger)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	reg := metrics.New()

	q := queue.NewQueues()
	codec := protocol.NewCodec(q)
	codec.SetServerID(cfg.Protocol.ServerID)
	codec.OnWrap = reg.SequenceWraps.Inc

	connFlag := &state.ConnFlag{}
	errs := state.NewErrorCounter(state.DefaultIncrement, state.DefaultDecrement, state.DefaultMax)

	sinks := []protocol.EventsManager{&logEvents{logger: logger}}
	if cfg.MQTT.Enabled {
		sink, err := mqttsink.New(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix, logger)
		if err != nil {
			logger.Printf("mqtt sink disabled: %v", err)
		} else {
			defer sink.Close()
			sinks = append(sinks, sink)
		}
	}
	events := eventsink.Instrumented{
		Inner: eventsink.Multi{Sinks: sinks},
		Reg:   reg,
	}

	decoder := protocol.NewDecoder(q, connFlag, events, logger)
	decoder.OnDiscard = reg.FramesDiscarded.Inc
	decoder.OnProtocolFatal = reg.ProtocolIncompatible.Inc

	pinger := ping.New(codec, q, logger)
	pinger.OnPing = reg.PingsSent.Inc

	mgr := connmgr.New(q, codec, decoder, pinger, connFlag, errs, reg, cfg.PingInterval(), logger)
	mgr.Configure(cfg.Net.Host, cfg.Net.Port)

	sampler, err := healthsample.New(reg, logger)
	if err != nil {
		logger.Printf("health sampler disabled: %v", err)
	} else {
		sampler.Start()
		defer sampler.Stop()
	}

	metricsServer := &http.Server{Addr: *metricsListen, Handler: promhttp.Handler()}
	go func() {
		logger.Printf("metrics listening on %s", *metricsListen)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Printf("shutting down")
		cancel()
		metricsServer.Close()
	}()

	mgr.Run(ctx)
}

// logEvents is the default events-manager consumer when no richer
// application is embedding this driver: it just logs what it receives.
type logEvents struct {
	logger *log.Logger
}

func (l *logEvents) Connected() {
	l.logger.Printf("event: connected")
}

func (l *logEvents) TrajectoriesDiscovered(tracks map[string]protocol.TrajectoryRecord) {
	l.logger.Printf("event: %d trajectories discovered", len(tracks))
}

func (l *logEvents) CaptureTargetState(rec protocol.CaptureStatusRecord) {
	l.logger.Printf("event: capture state track=%d state=%d", rec.TrackID, rec.CaptureState)
}

func (l *logEvents) ServerStateChanged(rec protocol.ServerStateRecord) {
	l.logger.Printf("event: server state radar=%s", rec.RadarType)
}

func (l *logEvents) ExtendedStateChanged(rec protocol.ExtendedStatusRecord) {
	l.logger.Printf("event: extended state clients=%d", rec.ClientCount)
}
