package trackfit

import (
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// EventHandler receives every message of the event topic. On a decode
// failure ev is nil and err is set.
type EventHandler func(topic string, ev *Event, err error)

// MQTTClient subscribes to the event topic and hands decoded events to a
// handler.
type MQTTClient struct {
	client      mqtt.Client
	topic       string
	handler     EventHandler
	logger      *zap.Logger
	isConnected bool
	mu          sync.RWMutex
}

// mqttSettings resolves the connection settings, letting MQTT_* environment
// variables override the configuration file.
func mqttSettings(cfg MQTTConfig) MQTTConfig {
	out := cfg
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		out.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		out.ClientID = v
	}
	if out.ClientID == "" {
		out.ClientID = "seedtrack"
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		out.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		out.Password = v
	}
	return out
}

// NewMQTTClient prepares a client for the configured broker. It returns a
// nil client when no broker is configured. Call Start to connect.
func NewMQTTClient(cfg MQTTConfig, handler EventHandler, logger *zap.Logger) *MQTTClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := mqttSettings(cfg)
	if settings.Broker == "" {
		logger.Info("MQTT disabled: no broker configured")
		return nil
	}

	c := &MQTTClient{
		topic:   settings.EventTopic,
		handler: handler,
		logger:  logger.With(zap.String("broker", settings.Broker)),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(settings.Broker)
	opts.SetClientID(settings.ClientID)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
		opts.SetPassword(settings.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	// Events are converted in arrival order.
	opts.SetOrderMatters(true)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		c.logger.Info("MQTT reconnecting")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// newMQTTClientWith wraps an existing mqtt.Client.
func newMQTTClientWith(client mqtt.Client, topic string, handler EventHandler, logger *zap.Logger) *MQTTClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTClient{client: client, topic: topic, handler: handler, logger: logger}
}

// Start connects in the background, retrying with exponential backoff
// until connected or stop is closed.
func (c *MQTTClient) Start(stop <-chan struct{}) {
	go c.connectWithRetry(stop)
}

func (c *MQTTClient) connectWithRetry(stop <-chan struct{}) {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		c.logger.Info("connecting to MQTT broker")
		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				c.logger.Info("connected to MQTT broker")
				c.setConnected(true)
				return
			}
			c.logger.Warn("MQTT connection failed", zap.Error(token.Error()))
		} else {
			c.logger.Warn("MQTT connection timeout")
		}

		c.logger.Info("retrying MQTT connection", zap.Duration("in", retryDelay))
		select {
		case <-stop:
			return
		case <-time.After(retryDelay):
		}
		retryDelay = min(retryDelay*2, maxRetryDelay)
	}
}

func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)
	if c.topic == "" {
		c.logger.Warn("no event topic configured, not subscribing")
		return
	}
	token := client.Subscribe(c.topic, 1, c.onMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		c.logger.Error("subscribe failed", zap.String("topic", c.topic), zap.Error(token.Error()))
		return
	}
	c.logger.Info("subscribed", zap.String("topic", c.topic))
}

func (c *MQTTClient) onConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("MQTT connection interrupted, auto-reconnect will retry", zap.Error(err))
	c.setConnected(false)
}

func (c *MQTTClient) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	c.logger.Debug("event message received",
		zap.String("topic", msg.Topic()), zap.Int("bytes", len(payload)))

	ev, err := DecodeEvent(payload)
	if err != nil {
		c.logger.Warn("decoding event failed", zap.String("topic", msg.Topic()), zap.Error(err))
	}
	if c.handler != nil {
		c.handler(msg.Topic(), ev, err)
	}
}

// IsConnected reports whether the broker connection is up.
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect closes the broker connection.
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.logger.Info("disconnecting from MQTT broker")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// Client returns the underlying client for publishing.
func (c *MQTTClient) Client() mqtt.Client {
	return c.client
}
