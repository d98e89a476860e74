package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/frame"
	"github.com/charlie0129/phmeter/pkg/sampler"
	"github.com/charlie0129/phmeter/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		WindowSize: ptr.To(sampler.DefaultWindowSize),
		Metric:     ptr.To(string(classifier.MetricRGB)),
		// No source means measurements only come from uploaded frames.
		Source:             ptr.To(""),
		Schedule:           ptr.To(""),
		AllowNonRootAccess: ptr.To(false),
	}
)

// ScheduleParser parses capture schedules: standard five-field cron with an
// optional seconds field, or descriptors such as "@every 30s".
var ScheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	WindowSize         *int    `json:"windowSize,omitempty"`
	Metric             *string `json:"metric,omitempty"`
	Source             *string `json:"source,omitempty"`
	Schedule           *string `json:"schedule,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		WindowSize:         ptr.To(c.WindowSize()),
		Metric:             ptr.To(string(c.Metric())),
		Source:             ptr.To(c.Source()),
		Schedule:           ptr.To(c.Schedule()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

// Validate checks the fields that are set.
func (r *RawFileConfig) Validate() error {
	if r.WindowSize != nil {
		if err := ValidateWindowSize(*r.WindowSize); err != nil {
			return err
		}
	}
	if r.Metric != nil {
		if _, err := classifier.ParseMetric(*r.Metric); err != nil {
			return err
		}
	}
	if r.Source != nil {
		if err := frame.ValidateSpec(*r.Source); err != nil {
			return err
		}
	}
	// An empty schedule disables scheduled captures.
	if r.Schedule != nil && *r.Schedule != "" {
		if err := ValidateSchedule(*r.Schedule); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSchedule checks that expr is a schedule ScheduleParser accepts.
func ValidateSchedule(expr string) error {
	if _, err := ScheduleParser.Parse(expr); err != nil {
		return pkgerrors.Wrapf(err, "invalid schedule %q", expr)
	}
	return nil
}

// ValidateWindowSize checks that size is odd and within bounds, so the window
// is centred on the sampled point.
func ValidateWindowSize(size int) error {
	if size < MinWindowSize || size > MaxWindowSize {
		return pkgerrors.Errorf("window size must be between %d and %d, got %d", MinWindowSize, MaxWindowSize, size)
	}
	if size%2 == 0 {
		return pkgerrors.Errorf("window size must be odd, got %d", size)
	}
	return nil
}

func (f *File) WindowSize() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.WindowSize != nil {
		return *f.c.WindowSize
	}
	return *defaultFileConfig.WindowSize
}

func (f *File) Metric() classifier.Metric {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var metric string

	if f.c.Metric != nil {
		metric = *f.c.Metric
	} else {
		metric = *defaultFileConfig.Metric
	}

	m, err := classifier.ParseMetric(metric)
	if err != nil {
		logrus.Warnf("invalid metric %q in config, using %s", metric, classifier.MetricRGB)
		return classifier.MetricRGB
	}
	return m
}

func (f *File) Source() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Source != nil {
		return *f.c.Source
	}
	return *defaultFileConfig.Source
}

func (f *File) Schedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Schedule != nil {
		return *f.c.Schedule
	}
	return *defaultFileConfig.Schedule
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var allowNonRootAccess bool

	if f.c.AllowNonRootAccess != nil {
		allowNonRootAccess = *f.c.AllowNonRootAccess
	} else {
		allowNonRootAccess = *defaultFileConfig.AllowNonRootAccess
	}

	return allowNonRootAccess
}

func (f *File) SetWindowSize(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if err := ValidateWindowSize(i); err != nil {
		panic(err.Error())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.WindowSize = &i
}

func (f *File) SetMetric(m classifier.Metric) {
	if f.c == nil {
		panic("config is nil")
	}

	if _, err := classifier.ParseMetric(string(m)); err != nil {
		panic(err.Error())
	}

	s := string(m)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Metric = &s
}

func (f *File) SetSource(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Source = &s
}

func (f *File) SetSchedule(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.Schedule = &s
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"windowSize":         f.WindowSize(),
		"metric":             f.Metric(),
		"source":             f.Source(),
		"schedule":           f.Schedule(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
