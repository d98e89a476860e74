package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/events"
	"github.com/charlie0129/phmeter/pkg/meter"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Print measurements as the daemon takes them",
		GroupID: gBasic,
		Long:    `Print measurements as the daemon takes them, including scheduled captures, until interrupted.`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for ev := range apiClient.SubscribeEvents(ctx) {
				handleEvent(cmd, ev)
			}
			return nil
		},
	}
}

func handleEvent(cmd *cobra.Command, ev events.Event) {
	logrus.WithFields(logrus.Fields{
		"event": ev.Name,
		"data":  string(ev.Data),
	}).Debug("new event")

	switch ev.Name {
	case events.Measurement:
		m, err := events.DecodeAs[meter.Measurement](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode measurement event")
			return
		}
		printMeasurement(cmd, m)
		cmd.Println()
	case events.ScheduleUpcoming:
		payload, err := events.DecodeAs[events.ScheduleEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode schedule.upcoming event")
			return
		}
		logrus.Infof("scheduled capture at %s", time.Unix(payload.At, 0).Local().Format(time.DateTime))
	case events.ScheduleError:
		payload, err := events.DecodeAs[events.ScheduleEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode schedule.error event")
			return
		}
		logrus.Errorf("scheduled capture failed: %s", payload.Message)
	}
}
