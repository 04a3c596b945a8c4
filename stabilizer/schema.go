package stabilizer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchema describes the shape of a config document. It checks types and
// keys only; numeric ranges are clamped by Sanitize rather than rejected.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "enabled": {"type": "boolean"},
    "auto_cleanup": {"type": "boolean"},
    "tick_interval_seconds": {"type": "integer"},
    "trend_window_seconds": {"type": "integer"},
    "fallback_available_memory_mb": {"type": "integer"},
    "compact_on_deep": {"type": "boolean"},
    "trim_resident_after_cleanup": {"type": "boolean"},
    "policy": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "soft_percent": {"type": "integer"},
        "hard_percent": {"type": "integer"},
        "emergency_percent": {"type": "integer"},
        "hysteresis_percent": {"type": "integer"},
        "sustain_seconds": {"type": "integer"},
        "use_trend_average": {"type": "boolean"},
        "deep_only_when_safe": {"type": "boolean"},
        "prefer_light_while_waiting": {"type": "boolean"},
        "light_cooldown_seconds": {"type": "integer"},
        "deep_cooldown_seconds": {"type": "integer"}
      }
    }
  }
}`

var compiledConfigSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	schemaData, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add config schema resource: %w", err)
	}
	return c.Compile("config.json")
})

// ConfigValidationError wraps a schema violation in a config document.
type ConfigValidationError struct {
	Err error
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigValidationError) Unwrap() error {
	return e.Err
}

// ValidateConfigDocument checks a decoded YAML document against the config schema.
func ValidateConfigDocument(doc any) error {
	schema, err := compiledConfigSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so the validator sees json.Number and
	// map[string]any regardless of how the YAML decoder typed the values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return &ConfigValidationError{Err: err}
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return &ConfigValidationError{Err: err}
	}
	if err := schema.Validate(inst); err != nil {
		return &ConfigValidationError{Err: err}
	}
	return nil
}
