package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/events"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/bgitu-quiz/quiz-service/pkg"
	"github.com/spf13/cobra"
)

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := pkg.Migrate(a.db); err != nil {
				return err
			}
			a.logger.Info("Database schema is up to date")
			return nil
		},
	}
}

func importCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a test from an .xlsx or .csv question file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open question file: %w", err)
			}
			defer file.Close()

			summary, err := a.services.ImportExport().ImportTestFromFile(cmd.Context(), file, filepath.Base(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported test %q (id %d): %d questions, %d skipped rows, %d errors\n",
				summary.TestName, summary.TestID, summary.SuccessCount, summary.SkippedCount, summary.ErrorCount)
			for _, e := range summary.Errors {
				fmt.Fprintf(out, "  row %d, %s: %s\n", e.Row, e.Column, e.Message)
			}
			return nil
		},
	}
}

func exportResultsCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export-results <testID> <out.xlsx>",
		Short: "Write the stored results of a test to a workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			testID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || testID == 0 {
				return fmt.Errorf("testID must be a positive integer, got %q", args[0])
			}

			a, err := newApp(cmd.Context(), *envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.services.ImportExport().ExportResults(cmd.Context(), uint(testID))
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote results of test %d to %s\n", testID, args[1])
			return nil
		},
	}
}

func watchResultsCmd(envFile *string) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "watch-results",
		Short: "Print result.submitted events from the configured Kafka topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				return err
			}

			slogger := utils.ToSlogLogger(logger)
			subscriber, err := events.NewKafkaSubscriber(events.SubscriberConfig{
				KafkaBrokers:  cfg.Events.GetKafkaBrokers(),
				ConsumerGroup: group,
				Logger:        slogger,
			})
			if err != nil {
				return err
			}
			defer subscriber.Close()

			out := cmd.OutOrStdout()
			return events.ConsumeResults(cmd.Context(), subscriber, cfg.Events.Topic, func(_ context.Context, e *events.ResultSubmittedEvent) error {
				_, err := fmt.Fprintf(out, "%s\t%s\t%s\t%.1f/%.1f (%.1f%%)\n",
					e.FinishedAt.Format(time.RFC3339), e.TestName, e.StudentFullName, e.TotalScore, e.MaxScore, e.Percent)
				return err
			}, slogger)
		},
	}
	cmd.Flags().StringVar(&group, "group", "quizd-watch", "Kafka consumer group")
	return cmd
}
