// Package mqttsink republishes decoded radar events onto an MQTT broker,
// grounded on the teacher's MQTTPublisher (connection options, handlers
// and JSON payload shape all follow mqtt_publisher.go's pattern) but
// publishing per-event payloads instead of a periodic metrics snapshot.
package mqttsink

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cwsl/radescan-driver/internal/protocol"
)

// Sink implements protocol.EventsManager by publishing each event as a
// JSON payload under {topicPrefix}/<event>.
type Sink struct {
	client      mqtt.Client
	topicPrefix string
	logger      *log.Logger
}

// New connects to broker and returns a ready Sink. ConnectRetry is set,
// so a failed initial connection is retried every 10s and New does not
// return until the broker has accepted the connection; paho's
// AutoReconnect handles drops after that.
func New(broker, clientID, topicPrefix string, logger *log.Logger) (*Sink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Printf("mqttsink: connected to broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Printf("mqttsink: connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqttsink: connect to %s: %w", broker, token.Error())
	}

	return &Sink{client: client, topicPrefix: topicPrefix, logger: logger}, nil
}

// Close disconnects from the broker, waiting up to 250ms for in-flight
// publishes to drain.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}

func (s *Sink) publish(suffix string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Printf("mqttsink: marshal %s payload: %v", suffix, err)
		return
	}
	topic := s.topicPrefix + "/" + suffix
	token := s.client.Publish(topic, 0, false, data)
	go func() {
		if token.Wait() && token.Error() != nil {
			s.logger.Printf("mqttsink: publish %s: %v", topic, token.Error())
		}
	}()
}

func (s *Sink) Connected() {
	s.publish("connected", map[string]int64{"timestamp": time.Now().Unix()})
}

func (s *Sink) TrajectoriesDiscovered(tracks map[string]protocol.TrajectoryRecord) {
	s.publish("trajectories", tracks)
}

func (s *Sink) CaptureTargetState(rec protocol.CaptureStatusRecord) {
	s.publish("capture", rec)
}

func (s *Sink) ServerStateChanged(rec protocol.ServerStateRecord) {
	s.publish("state", rec)
}

func (s *Sink) ExtendedStateChanged(rec protocol.ExtendedStatusRecord) {
	s.publish("extended_state", rec)
}
