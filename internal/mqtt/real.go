package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/agritech/internal/logic"
	"github.com/sweeney/agritech/internal/sensor"
)

// bufferCapacity bounds the messages kept while the broker is unreachable.
// At one reading per 10s this is a little under three hours.
const bufferCapacity = 1000

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and replayed once the connection is back.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. It does not wait
// for the first connection: paho retries in the background and anything
// published meanwhile is buffered.
func NewRealPublisher(broker, clientID string, logger *zap.Logger) *RealPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &RealPublisher{
		log: logger,
		buf: newRingBuffer(bufferCapacity),
	}

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("mqtt connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	dropped := p.buf.dropped
	pending := p.buf.drainAll()
	p.mu.Unlock()

	p.log.Info("mqtt connected", zap.Int("replay", len(pending)), zap.Int("dropped", dropped))
	for _, m := range pending {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.log.Warn("mqtt replay timeout", zap.String("topic", m.topic))
			continue
		}
		if err := token.Error(); err != nil {
			p.log.Warn("mqtt replay failed", zap.String("topic", m.topic), zap.Error(err))
		}
	}
}

// PublishReading sends a reading (QoS 0, not retained).
func (p *RealPublisher) PublishReading(r sensor.Reading) error {
	payload, err := FormatReading(r)
	if err != nil {
		return fmt.Errorf("format reading: %w", err)
	}
	return p.publish(TopicReadings, 0, false, payload)
}

// PublishField sends a field transition (QoS 1, not retained).
func (p *RealPublisher) PublishField(event logic.Event) error {
	payload, err := FormatField(event)
	if err != nil {
		return fmt.Errorf("format field event: %w", err)
	}
	return p.publish(TopicField, 1, false, payload)
}

// PublishSystem sends a lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		dropped := p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		if dropped {
			p.log.Debug("mqtt buffer full, dropped oldest", zap.Int("capacity", bufferCapacity))
		}
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
