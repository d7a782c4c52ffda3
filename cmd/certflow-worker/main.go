// Command certflow-worker runs the three asynchronous pipeline stage
// consumers (C8, C9, C10) under one supervisor (C11), grounded on
// estuary-flow's go/flow-ingester/main.go command shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/config"
	"github.com/eduflow/certflow/internal/db"
	"github.com/eduflow/certflow/internal/llm"
	"github.com/eduflow/certflow/internal/logging"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/ocr"
	"github.com/eduflow/certflow/internal/pipeline"
	"github.com/eduflow/certflow/internal/repository"
)

var Config = new(config.Config)

type cmdServe struct{}

func (cmdServe) Execute(_ []string) error {
	logging.Init(*Config)

	log.WithField("config", Config).Info("certflow-worker configuration")

	sqlDB, err := db.Open(*Config)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	submissions := repository.NewSubmissionRepository(sqlDB)
	students := repository.NewStudentRepository(sqlDB)
	categories := repository.NewCategoryRepository(sqlDB)
	ocrTexts := repository.NewOcrTextRepository(sqlDB)
	metadataRepo := repository.NewMetadataRepository(sqlDB)
	activities := repository.NewActivityRepository(sqlDB)

	store := objectstore.New(*Config)
	ocrAdapter := ocr.New(*Config)
	publisher := bus.NewPublisher(*Config)
	defer publisher.Close()

	llmClient, err := llm.NewClient(*Config)
	if err != nil {
		return fmt.Errorf("constructing llm client: %w", err)
	}

	ingestWorker := &pipeline.IngestWorker{
		Submissions: submissions,
		OcrTexts:    ocrTexts,
		Store:       store,
		OCR:         ocrAdapter,
		Publisher:   publisher,
	}
	ocrFieldWorker := &pipeline.OcrFieldWorker{
		Submissions: submissions,
		Students:    students,
		Metadata:    metadataRepo,
		LLM:         llmClient,
		Publisher:   publisher,
	}
	metadataWorker := &pipeline.MetadataWorker{
		Submissions: submissions,
		Students:    students,
		OcrTexts:    ocrTexts,
		Categories:  categories,
		Activities:  activities,
		LLM:         llmClient,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supervisor := pipeline.NewSupervisor(ctx, *Config, ingestWorker, ocrFieldWorker, metadataWorker)
	supervisor.Run()

	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalCh
		log.WithField("signal", sig).Info("caught signal")
		supervisor.Stop()
	}()

	log.Info("starting certflow-worker stage consumers")

	if err := supervisor.Wait(); err != nil {
		return fmt.Errorf("stage consumer failed: %w", err)
	}

	log.Info("goodbye")
	return nil
}

func main() {
	parser := flags.NewParser(Config, flags.Default)

	_, _ = parser.AddCommand("serve", "Run the certflow pipeline stage workers", `
Run the ingest, OCR, and metadata stage consumers until signaled to exit
(via SIGTERM).
`, &cmdServe{})

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
