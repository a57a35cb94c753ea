package clients

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"scorely-session-svc/src/internal/config"
)

// MQTT wraps the paho client. Connection loss is handled by the client's
// auto-reconnect; publications issued while disconnected block until the
// broker is reachable again or the token times out.
type MQTT struct {
	Client mqtt.Client
	cfg    *config.BrokerConfig
}

func NewMQTT(cfg *config.BrokerConfig) (*MQTT, error) {
	log.WithFields(map[string]interface{}{
		"url":       cfg.Url,
		"client_id": cfg.ClientID,
	}).Info("Connecting to MQTT broker...")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Url).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Duration(cfg.MaxReconnectWait) * time.Second).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetOrderMatters(true)

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost, reconnecting...")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(time.Duration(cfg.ConnectTimeout) * time.Second) {
		return nil, fmt.Errorf("mqtt connect timed out after %ds", cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		log.WithError(err).Error("Failed to connect to MQTT broker")
		return nil, err
	}

	return &MQTT{
		Client: client,
		cfg:    cfg,
	}, nil
}

// Subscribe registers a handler for a topic filter at the configured QoS.
func (m *MQTT) Subscribe(filter string, handler func(topic string, payload []byte)) error {
	token := m.Client.Subscribe(filter, m.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		log.WithError(err).WithField("filter", filter).Error("Failed to subscribe")
		return err
	}

	log.WithField("filter", filter).Info("Subscribed to topic")
	return nil
}

// Publish sends a payload at the configured QoS. Retained messages are
// stored by the broker and redelivered to every new subscriber.
func (m *MQTT) Publish(topic string, payload []byte, retained bool) error {
	token := m.Client.Publish(topic, m.cfg.QoS, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		log.WithError(err).WithField("topic", topic).Error("Failed to publish")
		return err
	}
	return nil
}

func (m *MQTT) Close() {
	m.Client.Disconnect(250)
	log.Info("MQTT connection closed")
}
