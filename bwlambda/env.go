package bwlambda

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	serviceName() string
	awsRegion() string
	primaryRegion() string
	logLevel() zapcore.Level
	otelExporter() string
}

// BaseEnvironment contains the environment variables every function needs.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	ServiceName   string        `env:"BW_SERVICE_NAME,required"`
	AWSRegion     string        `env:"AWS_REGION,required"`
	PrimaryRegion string        `env:"BW_PRIMARY_REGION,required"`
	LogLevel      zapcore.Level `env:"BW_LOG_LEVEL" envDefault:"info"`
	OtelExporter  string        `env:"BW_OTEL_EXPORTER" envDefault:"stdout"`
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}
func (e BaseEnvironment) awsRegion() string {
	return e.AWSRegion
}
func (e BaseEnvironment) primaryRegion() string {
	return e.PrimaryRegion
}
func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}
func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
