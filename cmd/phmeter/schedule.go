package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/config"
)

func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule [cron-expression]",
		Aliases: []string{"sch", "sched"},
		Short:   "Manage scheduled captures",
		Long: `Manage scheduled captures.

The schedule command can be used in multiple ways:
  phmeter schedule 'minute hour day month weekday' Set schedule with cron expression
  phmeter schedule disable                         Disable the schedule
  phmeter schedule skip                            Skip next run
  phmeter schedule show                            Show current schedule

Each scheduled run captures a frame from the configured source, see "phmeter source".`,
		Example: `  phmeter schedule '*/5 * * * *'   (Every 5 minutes)
  phmeter schedule '@every 30s'    (Every 30 seconds)
  phmeter schedule '0 9 * * 1-5'   (At 09:00 on weekdays)`,
		GroupID: gAdvanced,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no arguments, show the current schedule
			if len(args) == 0 {
				return runScheduleShow(cmd)
			}
			// Otherwise, treat as a cron expression to set
			return runScheduleSet(cmd, args[0])
		},
	}

	cmd.AddCommand(
		newScheduleDisableCommand(),
		newScheduleSkipCommand(),
		newScheduleShowCommand(),
	)

	return cmd
}

func newScheduleDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "disable",
		Aliases: []string{"off"},
		Short:   "Disable scheduled captures",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduleDisable(cmd)
		},
	}
}

func newScheduleSkipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Skip the next scheduled capture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduleSkip(cmd)
		},
	}
}

func newScheduleShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current capture schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduleShow(cmd)
		},
	}
}

func runScheduleSet(cmd *cobra.Command, cronExpr string) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	if err := config.ValidateSchedule(cronExpr); err != nil {
		return err
	}
	ret, err := apiClient.SetSchedule(cronExpr)
	if err != nil {
		return fmt.Errorf("failed to set schedule: %w", err)
	}
	cmd.Println(ret)
	return runScheduleShow(cmd)
}

func runScheduleDisable(cmd *cobra.Command) error {
	if _, err := apiClient.SetSchedule(""); err != nil {
		return fmt.Errorf("failed to disable schedule: %w", err)
	}
	cmd.Println("Scheduled capture disabled.")
	return nil
}

func runScheduleSkip(cmd *cobra.Command) error {
	status, err := apiClient.SkipSchedule()
	if err != nil {
		return fmt.Errorf("failed to skip next run: %w", err)
	}
	cmd.Print("Next scheduled capture skipped.")
	if status.NextRun != nil {
		cmd.Printf(" Next run: %s", status.NextRun.Local().Format(time.DateTime))
	}
	cmd.Println()
	return nil
}

func runScheduleShow(cmd *cobra.Command) error {
	status, err := apiClient.GetSchedule()
	if err != nil {
		return fmt.Errorf("failed to get schedule: %w", err)
	}
	if status.Schedule == "" {
		cmd.Println("Capture schedule is not set.")
		return nil
	}
	cmd.Printf("Schedule: %s\n", bold("%s", status.Schedule))
	if status.NextRun != nil {
		cmd.Printf("Next run: %s\n", status.NextRun.Local().Format(time.DateTime))
	}
	return nil
}
