package protocol

import "hearth/internal/player"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"player_name,omitempty"`
	Email           string `json:"email,omitempty"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	PlayerID        string         `json:"player_id"`
	Catalog         CatalogRef     `json:"catalog"`
	Record          *player.Record `json:"record"`
}

type CatalogRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// ACT (client -> server). One operation per message; fields beyond op are
// read only by the operation that needs them.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Op              string `json:"op"`

	ItemID   string `json:"item_id,omitempty"`
	Category string `json:"category,omitempty"`
	Accept   bool   `json:"accept,omitempty"`

	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Layer int     `json:"layer,omitempty"`

	GoalID string `json:"goal_id,omitempty"`
	Reward int    `json:"reward,omitempty"`

	Date  string  `json:"date,omitempty"`
	Hours float64 `json:"hours,omitempty"`
	Today string  `json:"today,omitempty"`
}

// RESULT (server -> client). The presentation layer re-renders from Record;
// it has no independent authority over ownership or placement state.
type ResultMsg struct {
	Type    string         `json:"type"`
	Op      string         `json:"op"`
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Record  *player.Record `json:"record,omitempty"`
}
