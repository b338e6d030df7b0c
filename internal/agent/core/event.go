package core

import (
	"bytes"
	"encoding/json"
	"errors"
)

// EventType names a message exchanged with the broker.
type EventType string

const (
	// EventCommand is an action request from the broker.
	EventCommand EventType = "vehicle.command"
	// EventState is a snapshot published by the vehicle.
	EventState EventType = "vehicle.state"
	// EventOnline is the presence marker published by the vehicle.
	EventOnline EventType = "vehicle.online"
)

// CommandMessage is the inbound action payload used by every transport.
type CommandMessage struct {
	Action string `json:"action"`
}

// OnlineMessage is the presence payload.
type OnlineMessage struct {
	VehicleID string `json:"vehicle_id"`
	Online    bool   `json:"online"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ParseCommand accepts either {"action": name} or a bare action name.
func ParseCommand(payload []byte) (string, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return "", errors.New("empty command")
	}
	if payload[0] != '{' {
		return string(payload), nil
	}

	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", err
	}
	if msg.Action == "" {
		return "", errors.New("command has no action")
	}
	return msg.Action, nil
}
