package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/frame"
)

func NewWindowSizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "window-size [size]",
		Short:   "Set the sampling window size",
		GroupID: gAdvanced,
		Long: `Set the sampling window size.

The daemon averages a size x size square of pixels around the measured point. The size must be odd so the square is centred on the point, and between 1 and 101. The default is 5.`,
		RunE: func(_ *cobra.Command, args []string) error {
			size, err := parseIntArg(args, "window size")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetWindowSize(size)
			if err != nil {
				return fmt.Errorf("failed to set window size: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set sampling window to %dx%d", size, size)

			return nil
		},
	}
}

func NewMetricCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "metric [rgb|lab]",
		Short:     "Set the colour distance metric",
		GroupID:   gAdvanced,
		ValidArgs: []string{string(classifier.MetricRGB), string(classifier.MetricLab)},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Long: `Set the colour distance metric.

rgb (default) ranks reference colours by Euclidean distance in 8-bit RGB space.
lab ranks them by distance in CIE L*a*b*, which follows perceived colour difference more closely.`,
		RunE: func(_ *cobra.Command, args []string) error {
			metric, err := classifier.ParseMetric(args[0])
			if err != nil {
				return err
			}

			ret, err := apiClient.SetMetric(metric)
			if err != nil {
				return fmt.Errorf("failed to set metric: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewSourceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source [spec]",
		Short:   "Set the frame source used by capture",
		GroupID: gAdvanced,
		Long: `Set the frame source used by capture and scheduled captures.

Supported sources:
  file:<path>       Re-read an image file on every capture
  camera:<index>    Read from a camera (requires a build with the gocv tag)`,
		Example: `  phmeter source file:/var/lib/phmeter/strip.png
  phmeter source camera:0
  phmeter source clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			spec := args[0]
			if err := frame.ValidateSpec(spec); err != nil {
				return err
			}
			return setSource(spec)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the frame source",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return setSource("")
		},
	})

	return cmd
}

func setSource(spec string) error {
	ret, err := apiClient.SetSource(spec)
	if err != nil {
		return fmt.Errorf("failed to set frame source: %w", err)
	}

	if ret != "" {
		logrus.Infof("daemon responded: %s", ret)
	}

	return nil
}
