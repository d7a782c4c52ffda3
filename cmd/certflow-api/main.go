// Command certflow-api serves the HTTP surface (student registration,
// certificate submission/status, coordinator review, health) over
// /api/v1, grounded on estuary-flow's go/flow-ingester/main.go command
// shape (go-flags "serve" subcommand, task.Group lifecycle, SIGTERM/SIGINT
// handling).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"go.gazette.dev/core/task"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/config"
	"github.com/eduflow/certflow/internal/db"
	"github.com/eduflow/certflow/internal/httpapi"
	"github.com/eduflow/certflow/internal/intake"
	"github.com/eduflow/certflow/internal/llm"
	"github.com/eduflow/certflow/internal/logging"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/repository"
	"github.com/eduflow/certflow/internal/review"
	"github.com/eduflow/certflow/internal/statusapi"
)

var Config = new(config.Config)

type cmdServe struct{}

func (cmdServe) Execute(_ []string) error {
	logging.Init(*Config)

	log.WithField("config", Config).Info("certflow-api configuration")

	sqlDB, err := db.Open(*Config)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(sqlDB); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	students := repository.NewStudentRepository(sqlDB)
	submissions := repository.NewSubmissionRepository(sqlDB)
	categories := repository.NewCategoryRepository(sqlDB)
	ocrTexts := repository.NewOcrTextRepository(sqlDB)
	metadata := repository.NewMetadataRepository(sqlDB)
	activities := repository.NewActivityRepository(sqlDB)

	store := objectstore.New(*Config)
	publisher := bus.NewPublisher(*Config)
	defer publisher.Close()

	llmClient, err := llm.NewClient(*Config)
	if err != nil {
		return fmt.Errorf("constructing llm client: %w", err)
	}

	intakeSvc := intake.New(sqlDB, students, submissions, store, publisher)
	statusSvc := statusapi.New(submissions, students, store)
	reviewSvc := review.New(submissions, students, ocrTexts, metadata, categories, activities, store)

	router := httpapi.NewRouter(httpapi.Deps{
		Cfg:         *Config,
		DB:          sqlDB,
		Students:    students,
		Submissions: submissions,
		Categories:  categories,
		Intake:      intakeSvc,
		Status:      statusSvc,
		Review:      reviewSvc,
		Store:       store,
		LLM:         llmClient,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", Config.HTTP.Port),
		Handler: router,
	}

	tasks := task.NewGroup(context.Background())
	tasks.Queue("http-server", func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	tasks.Queue("watch signalCh", func() error {
		select {
		case sig := <-signalCh:
			log.WithField("signal", sig).Info("caught signal")
			_ = server.Shutdown(context.Background())
			tasks.Cancel()
			return nil
		case <-tasks.Context().Done():
			return nil
		}
	})
	tasks.GoRun()

	log.WithField("port", Config.HTTP.Port).Info("starting certflow-api")

	if err := tasks.Wait(); err != nil {
		return fmt.Errorf("task failed: %w", err)
	}

	log.Info("goodbye")
	return nil
}

func main() {
	parser := flags.NewParser(Config, flags.Default)

	_, _ = parser.AddCommand("serve", "Serve the certflow HTTP API", `
Serve the certificate-processing HTTP API with the provided configuration,
until signaled to exit (via SIGTERM).
`, &cmdServe{})

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
