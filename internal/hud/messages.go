package hud

import "encoding/json"

// MessageType tags the HUD broadcast wire protocol's server->client message.
type MessageType string

const (
	MsgScroll     MessageType = "scroll"
	MsgHide       MessageType = "hide"
	MsgTouchProof MessageType = "touchproof"
	MsgCamera     MessageType = "camera"
	MsgConfig     MessageType = "config"
)

// ScrollMessage reports the current scroll velocity and normalized speed.
type ScrollMessage struct {
	VY    float64 `json:"vy"`
	Speed float64 `json:"speed"`
}

// HideMessage tells the renderer to hide the scroll indicator; sent on End.
type HideMessage struct{}

// TouchProofMessage reports whether the fingertips are currently fused as
// touching, and how many hands the detector saw that frame, for the
// renderer's contact indicator.
type TouchProofMessage struct {
	Active bool `json:"active"`
	Hands  int  `json:"hands"`
}

// CameraMessage carries a JPEG-compressed, base64-encoded camera frame, only
// sent while a client is in expanded mode with its camera enabled.
type CameraMessage struct {
	Frame  string `json:"frame"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ConfigMessage is sent once on connect (and on reconnect) so the renderer can
// place and style the HUD overlay.
type ConfigMessage struct {
	Position string  `json:"position"`
	Opacity  float64 `json:"opacity"`
}

// clientMessage is the client->server message: mode announcements and the
// camera-enabled toggle.
type clientMessage struct {
	Type     string `json:"type"`
	Expanded *bool  `json:"expanded,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// encode flattens v's own JSON fields alongside a top-level "type" tag; there
// is no payload envelope on the wire, e.g. {"type":"scroll","vy":...}.
func encode(t MessageType, v any) []byte {
	fields, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(fields, &merged); err != nil {
		return nil
	}
	if merged == nil {
		merged = make(map[string]json.RawMessage)
	}

	tag, _ := json.Marshal(t)
	merged["type"] = tag

	out, err := json.Marshal(merged)
	if err != nil {
		return nil
	}
	return out
}
