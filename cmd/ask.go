package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coursechat/coursechat/internal/app"
	"github.com/coursechat/coursechat/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	question := strings.Join(args, " ")
	answer, err := a.System.Query(ctx, uuid.NewString(), question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(answer.Text)
	printSources(answer)
	return nil
}

func printSources(answer *rag.Answer) {
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, src := range answer.Sources {
		fmt.Printf("  - %s, Lesson %d\n", src.Course, src.Lesson)
	}
}
