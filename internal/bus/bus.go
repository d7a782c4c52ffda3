// Package bus implements the typed publish/subscribe gateway (C2) over a
// Kafka-compatible durable log, grounded on
// original_source/services/kafka_service.py's producer configuration
// (acks=all, retries=3, 30s request timeout) and per-topic consumer-group
// scheme from original_source/consumers/*.py.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/config"
)

// Topic names, verbatim per spec.md §6.
const (
	TopicIngest   = "certificate.ingest"
	TopicOCR      = "certificate.ocr"
	TopicMetadata = "certificate.metadata"
)

// Consumer group ids, one per pipeline stage (§5).
const (
	GroupIngest   = "certificate-ingest-group"
	GroupOCR      = "certificate-ocr-group"
	GroupMetadata = "certificate-metadata-group"
)

// IngestMessage is the certificate.ingest payload (§6).
type IngestMessage struct {
	SubmissionID     int64  `json:"submission_id"`
	EnrollmentNumber string `json:"enrollment_number"`
	ObjectKey        string `json:"object_key"`
	Checksum         string `json:"checksum"`
	OriginalFilename string `json:"original_filename"`
	Stage            string `json:"stage"`
	Timestamp        string `json:"timestamp"`
}

// OCRMessage is the certificate.ocr payload (§6).
type OCRMessage struct {
	SubmissionID  int64   `json:"submission_id"`
	OcrTextID     int64   `json:"ocr_text_id"`
	RawText       string  `json:"raw_text"`
	OcrConfidence float64 `json:"ocr_confidence"`
	Stage         string  `json:"stage"`
	Timestamp     string  `json:"timestamp"`
}

// MetadataMessage is the certificate.metadata payload (§6). ExtractedData
// carries the LLM's five Portuguese-keyed fields as published by the OCR
// worker; the metadata worker adds raw_text to its own copy after receipt
// (§4.5 step 2) and publishes nothing further.
type MetadataMessage struct {
	SubmissionID  int64                  `json:"submission_id"`
	MetadataID    int64                  `json:"metadata_id"`
	ExtractedData map[string]interface{} `json:"extracted_data"`
	Stage         string                 `json:"stage"`
	Timestamp     string                 `json:"timestamp"`
}

// Publisher publishes typed, topic-keyed messages. One instance is shared
// across the HTTP process and every stage worker (client sharing is safe
// per §5).
type Publisher struct {
	brokers []string
	writers map[string]*kafka.Writer
}

// NewPublisher constructs a Publisher with acks=all, retries=3, and a 30s
// request timeout, matching kafka_service.py's KafkaProducer configuration.
func NewPublisher(cfg config.Config) *Publisher {
	p := &Publisher{brokers: cfg.Bus.Brokers, writers: make(map[string]*kafka.Writer)}
	for _, topic := range []string{TopicIngest, TopicOCR, TopicMetadata} {
		p.writers[topic] = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Bus.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  4, // one initial attempt plus three retries
			WriteTimeout: 30 * time.Second,
		}
	}
	return p
}

func (p *Publisher) publish(ctx context.Context, topic string, key string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s message: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = p.writers[topic].WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	log.WithFields(log.Fields{"topic": topic, "key": key}).Info("published message")
	return nil
}

// PublishIngest publishes to certificate.ingest after the intake service's
// transaction has committed (§4.1 step 6).
func (p *Publisher) PublishIngest(ctx context.Context, msg IngestMessage) error {
	msg.Stage = "ingest"
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return p.publish(ctx, TopicIngest, fmt.Sprintf("%d", msg.SubmissionID), msg)
}

// PublishOCR publishes to certificate.ocr at the end of the ingest stage
// worker (§4.3 step 7).
func (p *Publisher) PublishOCR(ctx context.Context, msg OCRMessage) error {
	msg.Stage = "ocr_completed"
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return p.publish(ctx, TopicOCR, fmt.Sprintf("%d", msg.SubmissionID), msg)
}

// PublishMetadata publishes to certificate.metadata once participant
// validation passes (§4.4 step 7).
func (p *Publisher) PublishMetadata(ctx context.Context, msg MetadataMessage) error {
	msg.Stage = "metadata_extracted"
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return p.publish(ctx, TopicMetadata, fmt.Sprintf("%d", msg.SubmissionID), msg)
}

// Close flushes and closes every topic writer.
func (p *Publisher) Close() error {
	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing writer for %s: %w", topic, err)
		}
	}
	return firstErr
}

// Consumer reads one topic under one consumer group, auto-committing per
// message (§5: effectively at-most-once for durable side effects).
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer opens a reader for topic under groupID, starting from the
// earliest offset on a fresh group (§5).
func NewConsumer(cfg config.Config, topic, groupID string) *Consumer {
	return &Consumer{
		topic: topic,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Bus.Brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Run reads messages from the topic until ctx is cancelled, invoking
// handle for each. handle errors are logged and swallowed — the message is
// still considered delivered (auto-commit, §5) and processing moves to the
// next message, matching the consumer.process_messages try/except loop in
// original_source's consumers.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, []byte) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithFields(log.Fields{"topic": c.topic, "error": err}).Error("error reading message")
			continue
		}

		if err := handle(ctx, msg.Value); err != nil {
			log.WithFields(log.Fields{"topic": c.topic, "error": err}).Error("error processing message")
		}
	}
}

// Close releases the underlying reader's connections.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing %s consumer: %w", c.topic, err)
	}
	return nil
}
