package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursechat/coursechat/internal/app"
)

var ingestReplace bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest course documents into the knowledge store",
	Long: `Ingest reads every .txt course document in the given directory
(default: the configured docs_dir), chunks the lesson content and stores
embeddings in PostgreSQL. Courses already in the catalog are skipped
unless --replace is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "re-ingest courses that already exist")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := initRuntime()
	if err != nil {
		return err
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		_ = a.Close()
	}()

	dir := cfg.DocsDir
	if len(args) == 1 {
		dir = args[0]
	}

	result, err := a.Ingestor.AddCourseFolder(ctx, dir, ingestReplace)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("Ingested %d courses (%d chunks) in %s\n",
		result.CoursesAdded, result.ChunksAdded, result.Duration.Round(10*time.Millisecond))
	if result.FilesSkipped > 0 {
		fmt.Printf("Skipped %d already-ingested files\n", result.FilesSkipped)
	}
	if result.FilesFailed > 0 {
		fmt.Printf("Failed to parse %d files (see logs)\n", result.FilesFailed)
	}
	return nil
}
