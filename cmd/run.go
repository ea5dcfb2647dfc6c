package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/notify"
	"github.com/maxkimambo/assetflow/internal/recipe"
	"github.com/maxkimambo/assetflow/internal/taskgraph"
	"github.com/maxkimambo/assetflow/internal/utils"
)

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	console := notify.NewConsole(cfg.Notify.Bell, quiet)
	graph, err := recipe.Build(cfg, recipe.Deps{Notifier: console, Progress: os.Stderr})
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = []string{"default"}
	}
	// unknown names and cycles fail before anything runs
	for _, name := range names {
		if _, err := graph.Plan(name); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Op.WithFields(map[string]interface{}{
		"root":   cfg.Root(),
		"config": cfg.File(),
		"tasks":  names,
	}).Debug("Starting build")

	failed := 0
	for _, name := range names {
		report, err := graph.Execute(ctx, name)
		if report != nil && name != "watch" && !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), summary(report))
		}
		if err = outcome(err, strict); err != nil {
			return err
		}
		if report != nil && !report.Succeeded() {
			failed++
		}
	}

	if failed > 0 {
		logger.User.Warnf("%d of %d runs reported stage failures", failed, len(names))
	}
	return nil
}

// outcome applies the exit policy to the error of one run: trapped stage
// failures were already reported and only fail the command in strict mode.
func outcome(err error, strict bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		logger.User.Warn("Interrupted")
		return err
	}
	if aferrors.IsTrapped(err) && !strict {
		logger.Op.WithFields(map[string]interface{}{
			"error": aferrors.DisplayErrorSummary(err),
		}).Debug("Stage failure trapped")
		return nil
	}
	return err
}

// summary renders the per-task results of a run.
func summary(report *taskgraph.Report) string {
	table := utils.NewTableFormatter("Task", "Status", "Duration")
	for _, res := range report.Results() {
		duration := "-"
		if res.Status == taskgraph.StatusSucceeded || res.Status == taskgraph.StatusFailed {
			duration = res.Duration.Round(time.Millisecond).String()
		}
		table.AddRow(res.Task, string(res.Status), duration)
	}

	rb := utils.NewReportBuilder().
		Header(fmt.Sprintf("Run '%s'", report.Target)).
		AddTable(table).
		AddKeyValue("Succeeded", report.Count(taskgraph.StatusSucceeded)).
		AddKeyValue("Failed", report.Count(taskgraph.StatusFailed)).
		AddKeyValue("Skipped", report.Count(taskgraph.StatusSkipped)).
		AddKeyValue("Total time", report.Duration.Round(time.Millisecond))

	for _, res := range report.Results() {
		if res.Status == taskgraph.StatusFailed && res.Error != nil {
			rb.AddBullet(fmt.Sprintf("%s: %s", res.Task, aferrors.DisplayErrorSummary(res.Error)))
		}
	}
	return rb.Build()
}
