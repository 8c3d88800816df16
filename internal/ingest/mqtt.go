package ingest

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/measurement"
	"appliance-alarm-backend/internal/metrics"
	"appliance-alarm-backend/internal/parse"
)

// Dispatcher queues measurement jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// MQTTSubscriber receives appliance reports published on the broker.
type MQTTSubscriber struct {
	cfg        config.MQTTConfig
	client     mqtt.Client
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewMQTTSubscriber builds the subscriber. The broker is not contacted until Start.
func NewMQTTSubscriber(cfg config.MQTTConfig, dispatcher Dispatcher, logger *zap.Logger) *MQTTSubscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTSubscriber{cfg: cfg, dispatcher: dispatcher, logger: logger.Named("mqtt")}
}

// Start connects and subscribes to the configured topic. Messages are
// dispatched with ctx, so cancelling it stops delivery to the pool.
func (s *MQTTSubscriber) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
	}
	if s.cfg.Password != "" {
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	// Handlers run on their own goroutines so a slow one never stalls acks.
	opts.SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("mqtt connection lost", zap.Error(err))
	})
	// Subscriptions do not survive a clean-session reconnect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			if err := s.HandleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
				s.logger.Warn("dropping mqtt message", zap.String("topic", msg.Topic()), zap.Error(err))
			}
		})
		if token.Wait() && token.Error() != nil {
			s.logger.Error("mqtt subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(token.Error()))
			return
		}
		s.logger.Info("subscribed", zap.String("topic", s.cfg.Topic))
	})

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// HandleMessage decodes a payload and queues its measurements. A report
// without a name takes the appliance name from the topic.
func (s *MQTTSubscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	if measurement.IsEmpty(payload) {
		return fmt.Errorf("empty payload")
	}
	list, err := measurement.Decode(payload)
	if err != nil {
		return err
	}

	var fromTopic string
	for _, m := range list {
		if m.Name == "" {
			if fromTopic == "" {
				if fromTopic, err = parse.TopicAppliance(s.cfg.Topic, topic); err != nil {
					return fmt.Errorf("no appliance name in payload or topic: %w", err)
				}
			}
			m.Name = fromTopic
		}
		if err := s.dispatch(ctx, Job{Source: metrics.SourceMQTT, Measurement: m}); err != nil {
			return fmt.Errorf("failed to queue measurement: %w", err)
		}
	}
	return nil
}

// dispatch queues a job, giving up after the configured timeout so a full
// queue drops messages instead of holding the client.
func (s *MQTTSubscriber) dispatch(ctx context.Context, job Job) error {
	if s.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DispatchTimeout)
		defer cancel()
	}
	return s.dispatcher.Dispatch(ctx, job)
}

// Stop disconnects from the broker.
func (s *MQTTSubscriber) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}
