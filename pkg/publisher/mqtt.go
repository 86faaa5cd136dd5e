// Package publisher sends monthly summaries to an MQTT broker so home
// automation systems can pick them up.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/levenlabs/go-lflag"

	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

const (
	defaultTopicPrefix = "qldtariffs"
	qos                = 1
)

// ErrDisabled is returned when publishing without a configured broker.
var ErrDisabled = errors.New("publisher disabled")

// Config holds the broker connection settings.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Publisher publishes retained month summaries.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// Configured returns a Publisher set up from flags. It is disabled unless
// -mqtt-broker is set.
func Configured() *Publisher {
	broker := lflag.String("mqtt-broker", "", "MQTT broker host:port to publish monthly summaries to (disabled when empty)")
	clientID := lflag.String("mqtt-client-id", "qldtariffs", "MQTT client ID")
	username := lflag.String("mqtt-username", "", "MQTT username")
	password := lflag.String("mqtt-password", "", "MQTT password")
	prefix := lflag.String("mqtt-topic-prefix", defaultTopicPrefix, "Prefix for published topics")

	p := &Publisher{}
	lflag.Do(func() {
		if *broker == "" {
			return
		}
		connected, err := New(Config{
			Broker:      *broker,
			ClientID:    *clientID,
			Username:    *username,
			Password:    *password,
			TopicPrefix: *prefix,
		})
		if err != nil {
			panic(fmt.Sprintf("mqtt init failed: %v", err))
		}
		*p = *connected
	})
	return p
}

// New connects to the broker in cfg.
func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}

	opts := mqtt.NewClientOptions()
	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts.AddBroker(broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "qldtariffs"
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	return NewWithClient(client, cfg.TopicPrefix), nil
}

// NewWithClient wraps an already connected client.
func NewWithClient(client mqtt.Client, topicPrefix string) *Publisher {
	if topicPrefix == "" {
		topicPrefix = defaultTopicPrefix
	}
	return &Publisher{client: client, topicPrefix: strings.TrimSuffix(topicPrefix, "/")}
}

// Enabled reports whether a broker is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.client != nil
}

// Topic returns the topic a site's month is published to.
func Topic(prefix, siteID string, month types.MonthKey) string {
	return fmt.Sprintf("%s/%s/monthly/%s", prefix, siteID, month)
}

// Payload encodes a month summary for publishing.
func Payload(summary types.MonthSummary) ([]byte, error) {
	body, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return body, nil
}

// PublishMonths publishes each month as a retained message and waits for the
// broker to acknowledge it.
func (p *Publisher) PublishMonths(ctx context.Context, siteID string, months []types.MonthSummary) error {
	if !p.Enabled() {
		return ErrDisabled
	}
	// wildcards or extra levels in a published topic get the client disconnected
	if err := types.ValidateSiteID(siteID); err != nil {
		return err
	}

	for _, month := range months {
		body, err := Payload(month)
		if err != nil {
			return err
		}
		topic := Topic(p.topicPrefix, siteID, month.Month)
		token := p.client.Publish(topic, qos, true, body)
		select {
		case <-token.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing %s: %w", topic, err)
		}
		log.Ctx(ctx).DebugContext(ctx, "published month summary", slog.String("topic", topic))
	}
	return nil
}

// Close disconnects from the MQTT broker.
func (p *Publisher) Close() {
	if p.Enabled() && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
