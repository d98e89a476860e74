package config

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/phmeter/pkg/classifier"
)

const (
	// MinWindowSize and MaxWindowSize bound the sampling window edge length.
	MinWindowSize = 1
	MaxWindowSize = 101
)

type Config interface {
	WindowSize() int
	Metric() classifier.Metric
	Source() string
	Schedule() string
	AllowNonRootAccess() bool

	SetWindowSize(int)
	SetMetric(classifier.Metric)
	SetSource(string)
	SetSchedule(string)
	SetAllowNonRootAccess(bool)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
