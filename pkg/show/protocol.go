package show

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BaseTopic is the default MQTT topic prefix for lumacast nodes.
const BaseTopic = "lumacast/v1"

// CommandEnvelope is the command envelope accepted by daemon modules.
type CommandEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	TS   int64           `json:"ts"`
	From string          `json:"from,omitempty"`
	Body json.RawMessage `json:"body"`
}

// ConfigSetBody updates the active media root.
type ConfigSetBody struct {
	MediaRoot string `json:"mediaRoot"`
}

// Presence describes a node presence payload.
type Presence struct {
	NodeID string         `json:"nodeId"`
	Kind   string         `json:"kind"`
	Name   string         `json:"name"`
	Caps   map[string]any `json:"caps,omitempty"`
	TS     int64          `json:"ts"`
}

// NewCommand builds a command envelope with a JSON body.
func NewCommand(cmdType string, body any) (CommandEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal body: %w", err)
	}
	return CommandEnvelope{Type: cmdType, Body: payload}, nil
}

// ValidateCommandEnvelope checks required envelope fields.
func ValidateCommandEnvelope(cmd CommandEnvelope) error {
	if strings.TrimSpace(cmd.ID) == "" {
		return errors.New("command id required")
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return errors.New("command type required")
	}
	return nil
}

// TopicCommands returns the command topic for a node.
func TopicCommands(base string, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/commands", base, nodeID)
}

// TopicState returns the retained state topic for a node.
func TopicState(base string, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/state", base, nodeID)
}

// TopicPresence returns the retained presence topic for a node.
func TopicPresence(base string, nodeID string) string {
	return fmt.Sprintf("%s/node/%s/presence", base, nodeID)
}
