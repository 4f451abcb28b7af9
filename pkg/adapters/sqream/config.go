package sqream

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultDriverNames are the database/sql driver names tried, in order, when
// no driver_names parameter is configured.
var DefaultDriverNames = []string{"sqream", "gosqream"}

// Params holds SQream-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Cluster connects through the load balancer instead of a worker.
	Cluster bool `mapstructure:"cluster"`

	// Service is the SQream service name, "sqream" when empty.
	Service string `mapstructure:"service"`

	// UseSSL enables TLS on the client connection.
	UseSSL bool `mapstructure:"use_ssl"`

	// DriverNames overrides the database/sql driver lookup order.
	DriverNames []string `mapstructure:"driver_names"`

	// SlowQueryThreshold logs statements slower than this at warn level.
	// Zero disables slow query detection.
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`

	// LogStatements logs every statement at debug level (default true)
	LogStatements *bool `mapstructure:"log_statements"`
}

// ParseParams decodes raw adapter params. Unknown keys are rejected so that
// typos in sqream.yaml surface at startup.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode sqream params: %w", err)
	}
	return p, nil
}

// ServiceName returns the configured service, defaulting to "sqream".
func (p *Params) ServiceName() string {
	if p.Service == "" {
		return "sqream"
	}
	return p.Service
}

// Drivers returns the driver names to try.
func (p *Params) Drivers() []string {
	if len(p.DriverNames) == 0 {
		return DefaultDriverNames
	}
	return p.DriverNames
}

// StatementLogging reports whether every statement is logged.
func (p *Params) StatementLogging() bool {
	return p.LogStatements == nil || *p.LogStatements
}
