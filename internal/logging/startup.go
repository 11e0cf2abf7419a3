package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects the Lambda identity, the managed services it talks
// to and its feature flags, then emits one structured event describing the
// cold-start state. One line per container makes it easy to see from
// CloudWatch which model, voice or table a given invocation was using.
type StartupLogger struct {
	name         string
	initDuration time.Duration

	models       map[string]string
	dynamoTables map[string]string
	eventBuses   map[string]string
	ssmParams    map[string]string
	features     map[string]bool
	config       map[string]string
}

// NewStartupLogger creates a StartupLogger for the given Lambda name
// (e.g. "summarise-text-lambda").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:         name,
		models:       make(map[string]string),
		dynamoTables: make(map[string]string),
		eventBuses:   make(map[string]string),
		ssmParams:    make(map[string]string),
		features:     make(map[string]bool),
		config:       make(map[string]string),
	}
}

// Model registers a model or voice identity used by this Lambda
// (e.g. "llm" -> "anthropic.claude-instant-v1", "voice" -> "Joanna").
func (s *StartupLogger) Model(label, id string) *StartupLogger {
	s.models[label] = id
	return s
}

// DynamoTable registers a DynamoDB table used by this Lambda.
func (s *StartupLogger) DynamoTable(label, name string) *StartupLogger {
	if name != "" {
		s.dynamoTables[label] = name
	}
	return s
}

// EventBus registers an EventBridge bus this Lambda publishes to.
func (s *StartupLogger) EventBus(label, name string) *StartupLogger {
	if name != "" {
		s.eventBuses[label] = name
	}
	return s
}

// SSMParam registers an SSM parameter path loaded by this Lambda.
// Only the path is logged, never the value.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	s.ssmParams[label] = path
	return s
}

// Feature registers a boolean feature flag (e.g. "runLedger", "notifications").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long init() took to complete.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO event with everything collected.
func (s *StartupLogger) Log() {
	evt := log.Info()

	evt = evt.Dict("lambda", zerolog.Dict().
		Str("name", s.name).
		Str("functionName", os.Getenv("AWS_LAMBDA_FUNCTION_NAME")).
		Str("version", os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")).
		Str("region", os.Getenv("AWS_REGION")).
		Str("memoryMB", os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE")).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("GENAI_LOG_LEVEL")))

	resources := zerolog.Dict()
	hasResources := false
	for label, m := range map[string]map[string]string{
		"models":       s.models,
		"dynamoTables": s.dynamoTables,
		"eventBuses":   s.eventBuses,
		"ssmParams":    s.ssmParams,
	} {
		if len(m) > 0 {
			resources = resources.Dict(label, dictFromMap(m))
			hasResources = true
		}
	}
	if hasResources {
		evt = evt.Dict("resources", resources)
	}

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Lambda cold start complete")
}

func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
