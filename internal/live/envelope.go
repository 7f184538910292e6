package live

import "github.com/goccy/go-json"

const (
	TypeAuth    = "AUTH"
	TypeAuthAck = "AUTH_ACK"
	TypeAlert   = "ALERT"
)

// inbound is a client message. Unknown fields and types are ignored.
type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(outbound{Type: typ, Payload: payload})
}

func decode(data []byte) (inbound, error) {
	var msg inbound
	err := json.Unmarshal(data, &msg)
	return msg, err
}
