package entity

import (
	"encoding/json"
	"fmt"
)

// SystemState is the orchestrator's position in the fallback lifecycle.
type SystemState int

const (
	StatePassive SystemState = iota
	StateWarning
	StateActiveFallback
)

func (s SystemState) String() string {
	switch s {
	case StatePassive:
		return "PASSIVE"
	case StateWarning:
		return "WARNING"
	case StateActiveFallback:
		return "ACTIVE_FALLBACK"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ParseSystemState is the inverse of String.
func ParseSystemState(s string) (SystemState, error) {
	switch s {
	case "PASSIVE":
		return StatePassive, nil
	case "WARNING":
		return StateWarning, nil
	case "ACTIVE_FALLBACK":
		return StateActiveFallback, nil
	}
	return StatePassive, fmt.Errorf("unknown system state %q", s)
}

func (s SystemState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SystemState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSystemState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
