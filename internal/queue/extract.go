package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"github.com/HexaField/causalmap/internal/storage"
	"github.com/HexaField/causalmap/internal/util"
	"github.com/HexaField/causalmap/pkg/cld"
	"github.com/HexaField/causalmap/pkg/export"
	"github.com/HexaField/causalmap/pkg/logger"
	"github.com/HexaField/causalmap/pkg/runlock"
	runstore "github.com/HexaField/causalmap/pkg/store/pgx"
)

// ExtractJobMsg is the payload published to the extract queue. Inputs either
// carry their text inline or reference it by source URI.
type ExtractJobMsg struct {
	RunID     string         `json:"run_id"`
	Inputs    []cld.Input    `json:"inputs"`
	Overrides *cld.Overrides `json:"overrides,omitempty"`
}

type runCompletedMsg struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Variables int    `json:"variables"`
	Edges     int    `json:"edges"`
	Loops     int    `json:"loops"`
}

// ProcessExtractMessage runs the full pipeline for one queued extraction job:
// resolve source texts, extract, export, persist, announce. A lease on the
// run id keeps concurrent workers from processing the same run twice.
func ProcessExtractMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(ExtractJobMsg)
	if err = json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to parse extract job: %w", err)
	}
	if data.RunID == "" {
		return fmt.Errorf("extract job is missing a run id")
	}

	runs := runstore.NewRunDBStore(conn)
	defer func() {
		if err == nil {
			return
		}
		failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if failErr := runs.FailRun(failCtx, data.RunID, err.Error()); failErr != nil {
			logger.Warn("[Queue] Failed to mark run as failed", "run_id", data.RunID, "err", failErr)
		}
	}()

	locks := runlock.New(conn)
	return locks.WithLock(ctx, "run:"+data.RunID, func(ctx context.Context) error {
		return processExtractJob(ctx, s3Client, ch, runs, data)
	})
}

func processExtractJob(
	ctx context.Context,
	s3Client *awss3.Client,
	ch *amqp091.Channel,
	runs *runstore.RunDBStore,
	data *ExtractJobMsg,
) error {
	logger.Info("[Queue] Processing extract job", "run_id", data.RunID, "inputs", len(data.Inputs))
	if err := runs.MarkRunning(ctx, data.RunID); err != nil {
		return err
	}

	inputs, err := resolveInputs(ctx, s3Client, data.Inputs)
	if err != nil {
		return err
	}

	exportRoot := util.GetEnvString("EXPORT_DIR", filepath.Join(os.TempDir(), "causalmap-exports"))
	exportDir := filepath.Join(exportRoot, data.RunID)

	run, err := cld.Run(ctx, inputs, cld.Options{
		Overrides: data.Overrides,
		Exporter:  export.NewFileExporter(),
		ExportDir: exportDir,
	})
	if err != nil {
		return err
	}

	if s3Client != nil && run.Export != nil {
		if err := uploadArtifacts(ctx, s3Client, data.RunID, run.Export); err != nil {
			return err
		}
	}

	if err := runs.CompleteRun(ctx, data.RunID, run.Result, run.Export); err != nil {
		return err
	}

	completed := runCompletedMsg{
		RunID:     data.RunID,
		Status:    "completed",
		Variables: len(run.Variables),
		Edges:     len(run.Edges),
		Loops:     len(run.Loops),
	}
	payload, err := json.Marshal(completed)
	if err != nil {
		return fmt.Errorf("failed to encode completion message: %w", err)
	}
	if err := PublishTopic(ch, "runs."+data.RunID+".completed", payload); err != nil {
		logger.Error("[Queue] Failed to publish run completion", "run_id", data.RunID, "err", err)
	}

	logger.Info("[Queue] Extract job completed", "run_id", data.RunID,
		"variables", len(run.Variables), "edges", len(run.Edges), "loops", len(run.Loops))
	return nil
}

func resolveInputs(ctx context.Context, s3Client *awss3.Client, inputs []cld.Input) ([]cld.Input, error) {
	resolved := make([]cld.Input, len(inputs))
	for i, input := range inputs {
		if input.ID == "" {
			return nil, fmt.Errorf("input %d is missing an id", i)
		}
		if input.Text == "" && input.SourceURI != "" {
			if s3Client == nil {
				return nil, fmt.Errorf("input %q references %q but no object storage is configured", input.ID, input.SourceURI)
			}
			text, err := storage.ResolveURI(ctx, s3Client, input.SourceURI)
			if err != nil {
				return nil, err
			}
			input.Text = text
		}
		if input.Text == "" {
			return nil, fmt.Errorf("input %q has neither text nor a source uri", input.ID)
		}
		resolved[i] = input
	}
	return resolved, nil
}

func uploadArtifacts(ctx context.Context, s3Client *awss3.Client, runID string, bundle *cld.ExportBundle) error {
	paths := []string{
		bundle.GraphJSON,
		bundle.NodesCSV,
		bundle.EdgesCSV,
		bundle.ProvenanceHTML,
		bundle.Diagram,
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open export artifact: %w", err)
		}
		key := fmt.Sprintf("runs/%s/%s", runID, filepath.Base(path))
		err = storage.PutFile(ctx, s3Client, key, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	logger.Debug("[Queue] Uploaded export artifacts", "run_id", runID, "files", len(paths))
	return nil
}
