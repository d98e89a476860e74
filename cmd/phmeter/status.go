package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/client"
	"github.com/charlie0129/phmeter/pkg/config"
	"github.com/charlie0129/phmeter/pkg/meter"
	"github.com/charlie0129/phmeter/pkg/types"
)

type statusData struct {
	config   *config.RawFileConfig
	schedule *types.ScheduleStatus
	latest   *meter.Measurement
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	sched, err := apiClient.GetSchedule()
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	latest, err := apiClient.GetResult()
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("failed to get latest result: %w", err)
	}

	return &statusData{
		config:   conf,
		schedule: sched,
		latest:   latest,
	}, nil
}

type statusJSON struct {
	Configuration statusConfigJSON     `json:"configuration"`
	Schedule      types.ScheduleStatus `json:"schedule"`
	Latest        *meter.Measurement   `json:"latest,omitempty"`
}

type statusConfigJSON struct {
	WindowSize         int    `json:"windowSize"`
	Metric             string `json:"metric"`
	Source             string `json:"source"`
	AllowNonRootAccess bool   `json:"allowNonRootAccess"`
}

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of phmeter",
		Long:    `Get the daemon configuration, capture schedule and latest measurement.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			conf := config.NewFileFromConfig(data.config, "")

			if asJSON {
				return printJSON(cmd, statusJSON{
					Configuration: statusConfigJSON{
						WindowSize:         conf.WindowSize(),
						Metric:             string(conf.Metric()),
						Source:             conf.Source(),
						AllowNonRootAccess: conf.AllowNonRootAccess(),
					},
					Schedule: *data.schedule,
					Latest:   data.latest,
				})
			}

			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Sampling window: %s\n", bold("%dx%d", conf.WindowSize(), conf.WindowSize()))
			cmd.Printf("  Distance metric: %s\n", bold("%s", conf.Metric()))
			if conf.Source() != "" {
				cmd.Printf("  Frame source: %s\n", bold("%s", conf.Source()))
			} else {
				cmd.Printf("  Frame source: %s (only uploaded frames can be measured)\n", bool2Text(false))
			}
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
			cmd.Println()

			cmd.Println(bold("Scheduled capture:"))
			if data.schedule.Schedule == "" {
				cmd.Printf("  Enabled: %s\n", bool2Text(false))
			} else {
				cmd.Printf("  Enabled: %s (%s)\n", bool2Text(true), data.schedule.Schedule)
				if data.schedule.NextRun != nil {
					cmd.Printf("  Next run: %s\n", bold("%s", data.schedule.NextRun.Local().Format(time.DateTime)))
				}
			}
			cmd.Println()

			if data.latest == nil {
				cmd.Println(bold("Latest measurement:") + " none yet")
				return nil
			}
			printMeasurement(cmd, *data.latest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")

	return cmd
}
