package pipeline

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.gazette.dev/core/task"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/config"
)

// Handler is implemented by each stage worker's Handle method.
type Handler interface {
	Handle(ctx context.Context, payload []byte) error
}

// Supervisor runs the three stage workers on independent consumer groups
// and coordinates their shutdown (C11, spec.md §4.6), grounded on
// estuary-flow's go/flow-ingester/main.go task.Group + signal-handling
// pattern: one task.Group, one Queue entry per worker, cancel-on-signal.
type Supervisor struct {
	Tasks *task.Group

	Ingest   *IngestWorker
	OcrField *OcrFieldWorker
	Metadata *MetadataWorker

	cfg       config.Config
	consumers []*bus.Consumer
}

// NewSupervisor builds a Supervisor bound to ctx; call Run to start all
// three stage consumers.
func NewSupervisor(ctx context.Context, cfg config.Config, ingest *IngestWorker, ocrField *OcrFieldWorker, metadata *MetadataWorker) *Supervisor {
	return &Supervisor{
		Tasks:    task.NewGroup(ctx),
		Ingest:   ingest,
		OcrField: ocrField,
		Metadata: metadata,
		cfg:      cfg,
	}
}

// Run queues all three stage workers onto the task group and starts them;
// it does not block. Call Wait to block until shutdown.
func (s *Supervisor) Run() {
	s.queueStage("ingest-consumer", bus.TopicIngest, bus.GroupIngest, s.Ingest.Handle)
	s.queueStage("ocr-consumer", bus.TopicOCR, bus.GroupOCR, s.OcrField.Handle)
	s.queueStage("metadata-consumer", bus.TopicMetadata, bus.GroupMetadata, s.Metadata.Handle)
	s.Tasks.GoRun()
}

func (s *Supervisor) queueStage(name, topic, groupID string, handle func(context.Context, []byte) error) {
	consumer := bus.NewConsumer(s.cfg, topic, groupID)
	s.consumers = append(s.consumers, consumer)

	s.Tasks.Queue(name, func() error {
		err := consumer.Run(s.Tasks.Context(), handle)
		if err != nil {
			log.WithFields(log.Fields{"consumer": name, "error": err}).Error("stage consumer exited with error")
		}
		return err
	})
}

// Wait blocks until every queued stage has returned, then closes their bus
// connections. A single worker's message failures do not cancel the
// others: Consumer.Run logs handler and read errors and returns nil once
// its context is cancelled, so no stage task returns an error that would
// make task.Group cancel the rest. The group is torn down by Stop (or the
// caller's own cancellation of the parent context).
func (s *Supervisor) Wait() error {
	err := s.Tasks.Wait()
	for _, c := range s.consumers {
		if closeErr := c.Close(); closeErr != nil {
			log.WithField("error", closeErr).Error("closing stage consumer")
		}
	}
	return err
}

// Stop cancels the task group, causing each consumer's Run loop to observe
// context cancellation and return.
func (s *Supervisor) Stop() {
	s.Tasks.Cancel()
}
