// Package stream publishes profile change events to Kafka.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config describes the brokers and the compacted profile topic.
type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	ClientID          string
}

// Publisher produces keyed records synchronously so a failed publish is
// reported to the sink dispatcher like any other sink error.
type Publisher struct {
	client      *kgo.Client
	topic       string
	partitions  int32
	replication int16
}

// NewPublisher connects to the brokers. The topic is not created here; see
// EnsureTopic.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("stream: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("stream: no topic configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.Lz4Compression(), kgo.NoCompression()),
		kgo.RecordDeliveryTimeout(10 * time.Second),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stream: new client: %w", err)
	}
	return &Publisher{
		client:      client,
		topic:       cfg.Topic,
		partitions:  cfg.Partitions,
		replication: cfg.ReplicationFactor,
	}, nil
}

// EnsureTopic creates the topic with log compaction when it does not exist.
func (p *Publisher) EnsureTopic(ctx context.Context) error {
	partitions, replication := p.partitions, p.replication
	if partitions <= 0 {
		partitions = 3
	}
	if replication <= 0 {
		replication = 1
	}
	compact := "compact"

	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopic(ctx, partitions, replication, map[string]*string{
		"cleanup.policy": &compact,
	}, p.topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("stream: create topic %s: %w", p.topic, err)
	}
	return nil
}

// Publish writes one record keyed by key and waits for the broker ack.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("stream: produce: %w", err)
	}
	return nil
}

// Ping checks broker reachability for readiness probes.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Publisher) Close(ctx context.Context) {
	_ = p.client.Flush(ctx)
	p.client.Close()
}
