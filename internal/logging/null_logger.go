package logging

import "github.com/sparkify-data/sparkify-etl/pkg/sparkify"

// NullLogger discards everything. Used in tests.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (NullLogger) Verbose(string, ...interface{}) {}
func (NullLogger) Info(string, ...interface{})    {}
func (NullLogger) Warn(string, ...interface{})    {}
func (NullLogger) Error(string, ...interface{})   {}

var _ sparkify.Logger = (*NullLogger)(nil)
