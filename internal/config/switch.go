package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Switch is an on/off flag. In files and environment variables it is written
// as ON/OFF (any case) or as a boolean.
type Switch bool

// ParseSwitch parses ON/OFF, true/false, yes/no and 1/0.
func ParseSwitch(s string) (Switch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch value %q, use ON or OFF", s)
}

// String renders the switch the way the settings file spells it.
func (s Switch) String() string {
	if s {
		return "ON"
	}
	return "OFF"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Switch) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: switch must be a scalar", node.Line)
	}
	v, err := ParseSwitch(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Switch) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Switch) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case bool:
		*s = Switch(v)
		return nil
	case string:
		parsed, err := ParseSwitch(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	return fmt.Errorf("invalid switch value %v", data)
}
