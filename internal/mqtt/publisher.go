package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"solar-sizer/internal/catalog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
	}, nil
}

// sizingEvent is the wire summary of a completed calculation.
type sizingEvent struct {
	RecordID        uint    `json:"record_id"`
	CalculatedAt    string  `json:"calculated_at"`
	PVInstalledW    float64 `json:"pv_installed_w"`
	PanelCount      int     `json:"panel_count"`
	PVTopology      string  `json:"pv_topology"`
	BatteryCount    int     `json:"battery_count"`
	BatteryTopology string  `json:"battery_topology"`
	TotalCost       float64 `json:"total_cost"`
	Currency        string  `json:"currency"`
	Location        string  `json:"location"`
}

// PublishSizingCompleted announces a persisted calculation on
// <prefix>/sizings/completed.
func (p *Publisher) PublishSizingCompleted(record *catalog.SizingRecord) error {
	if !p.enabled {
		return nil
	}

	event := sizingEvent{
		RecordID:        record.ID,
		CalculatedAt:    record.CalculatedAt.Format(time.RFC3339),
		PVInstalledW:    record.PVInstalledW,
		PanelCount:      record.PanelCount,
		PVTopology:      record.PVTopology,
		BatteryCount:    record.BatteryCount,
		BatteryTopology: record.BatteryTopology,
		TotalCost:       record.TotalCost,
		Currency:        record.Currency,
		Location:        record.Input.Location,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sizing event: %w", err)
	}

	topic := fmt.Sprintf("%s/sizings/completed", p.topicPrefix)
	token := p.client.Publish(topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
