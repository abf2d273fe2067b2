package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeAct     = "ACT"
	TypeResult  = "RESULT"
)

// Operations carried by ACT messages.
const (
	OpBuy          = "buy"
	OpPlace        = "place"
	OpResolveSwap  = "resolve_swap"
	OpReturn       = "return"
	OpSetPosition  = "set_position"
	OpSetLayer     = "set_layer"
	OpCompleteGoal = "complete_goal"
	OpLogSleep     = "log_sleep"
	OpSnapshot     = "snapshot"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
