package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/client"
	"github.com/charlie0129/phmeter/pkg/config"
	"github.com/charlie0129/phmeter/pkg/frame"
	"github.com/charlie0129/phmeter/pkg/meter"
	"github.com/charlie0129/phmeter/pkg/phscale"
	"github.com/charlie0129/phmeter/pkg/sampler"
	"github.com/charlie0129/phmeter/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Annotations: map[string]string{
			annotationLocal: "true",
		},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewScaleCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "scale",
		Short:   "Show the reference pH scale",
		GroupID: gBasic,
		Annotations: map[string]string{
			annotationLocal: "true",
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			points := phscale.Points()
			if asJSON {
				return printJSON(cmd, points)
			}
			printScale(cmd, points)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scale as JSON")

	return cmd
}

// localFlags configure a meter for commands that run without the daemon.
type localFlags struct {
	local      bool
	windowSize int
	metric     string
}

func (l *localFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&l.local, "local", false, "Run in this process instead of asking the daemon")
	f.IntVar(&l.windowSize, "window-size", sampler.DefaultWindowSize, "Sampling window size, only with --local")
	f.StringVar(&l.metric, "metric", string(classifier.MetricRGB), "Distance metric (rgb, lab), only with --local")
}

func (l *localFlags) meter() (*meter.Meter, error) {
	metric, err := classifier.ParseMetric(l.metric)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateWindowSize(l.windowSize); err != nil {
		return nil, err
	}
	return meter.New(l.windowSize, metric), nil
}

func NewClassifyCommand() *cobra.Command {
	var lf localFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "classify R G B",
		Short:   "Classify an averaged colour",
		GroupID: gBasic,
		Long: `Classify an averaged colour against the reference scale.

R, G and B are 0-255. The result is the reference point with the smallest distance to the colour; ties go to the lower pH.`,
		Example: `  phmeter classify 76 175 80
  phmeter classify 150 6 69 --local --metric lab`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, g, b, err := parseChannelArgs(args)
			if err != nil {
				return err
			}

			var res *classifier.Result
			if lf.local {
				m, err := lf.meter()
				if err != nil {
					return err
				}
				out := m.Classify(sampler.SampledColor{R: uint8(r), G: uint8(g), B: uint8(b)})
				res = &out
			} else {
				res, err = apiClient.Classify(r, g, b)
				if err != nil {
					return fmt.Errorf("failed to classify colour: %w", err)
				}
			}

			if asJSON {
				return printJSON(cmd, res)
			}
			cmd.Println(bold("Classification:"))
			printResult(cmd, *res)
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func NewMeasureCommand() *cobra.Command {
	var lf localFlags
	var asJSON bool
	var x, y int

	cmd := &cobra.Command{
		Use:     "measure IMAGE",
		Short:   "Measure the pH shown in an image file",
		GroupID: gBasic,
		Long: `Measure the pH shown in an image file.

The sampling window is centred on the middle of the image unless --x and --y are given. PNG, JPEG, GIF, BMP, TIFF and WebP images are supported.

Without --local the image is sent to the daemon, which uses its configured window size and metric and keeps the result as the latest measurement.`,
		Example: `  phmeter measure strip.png
  phmeter measure strip.jpg --x 120 --y 80
  phmeter measure strip.png --local --window-size 9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at *image.Point
			xSet, ySet := cmd.Flags().Changed("x"), cmd.Flags().Changed("y")
			if xSet != ySet {
				return errors.New("--x and --y must be given together")
			}
			if xSet {
				at = &image.Point{X: x, Y: y}
			}

			var m *meter.Measurement
			var err error
			if lf.local {
				m, err = measureLocal(args[0], at, &lf)
			} else {
				m, err = measureRemote(args[0], at)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd, m)
			}
			printMeasurement(cmd, *m)
			return nil
		},
	}

	lf.register(cmd)
	f := cmd.Flags()
	f.IntVar(&x, "x", 0, "X coordinate of the window centre")
	f.IntVar(&y, "y", 0, "Y coordinate of the window centre")
	f.BoolVar(&asJSON, "json", false, "Print the measurement as JSON")

	return cmd
}

func measureLocal(path string, at *image.Point, lf *localFlags) (*meter.Measurement, error) {
	mt, err := lf.meter()
	if err != nil {
		return nil, err
	}

	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer fp.Close()

	img, format, err := frame.Decode(fp)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"format": format,
		"bounds": img.Bounds().String(),
	}).Debug("decoded image")

	center := sampler.Center(img.Bounds())
	if at != nil {
		center = *at
	}

	m, err := mt.MeasureAt(img, center)
	if err != nil {
		return nil, fmt.Errorf("failed to measure: %w", err)
	}
	return &m, nil
}

func measureRemote(path string, at *image.Point) (*meter.Measurement, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	m, err := apiClient.Measure(b, at)
	if err != nil {
		return nil, fmt.Errorf("failed to measure: %w", err)
	}
	return m, nil
}

func NewCaptureCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "capture",
		Short:   "Measure a frame from the daemon's frame source",
		GroupID: gBasic,
		Long: `Measure a frame from the daemon's frame source.

A frame source must be configured first, see "phmeter source".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := apiClient.Capture()
			if err != nil {
				return fmt.Errorf("failed to capture: %w", err)
			}

			if asJSON {
				return printJSON(cmd, m)
			}
			printMeasurement(cmd, *m)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the measurement as JSON")

	return cmd
}

func NewResultCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "result",
		Short:   "Show the latest measurement",
		GroupID: gBasic,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := apiClient.GetResult()
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					cmd.Println("No measurement has been taken yet.")
					return nil
				}
				return fmt.Errorf("failed to get latest result: %w", err)
			}

			if asJSON {
				return printJSON(cmd, m)
			}
			printMeasurement(cmd, *m)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the measurement as JSON")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
