package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/pkg/result"
)

// Message is an immutable, tagged value sent between contexts.
type Message struct {
	Payload Payload
}

func New(p Payload) Message {
	return Message{Payload: p}
}

func (m Message) Action() Action {
	if m.Payload == nil {
		return ""
	}
	return m.Payload.Action()
}

type outbound struct {
	Action  Action  `json:"action"`
	Payload Payload `json:"payload,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.Payload == nil {
		return nil, fmt.Errorf("message has no payload")
	}
	out := outbound{Action: m.Payload.Action()}
	switch m.Payload.(type) {
	case StartOverlay, Ping, Pong:
	default:
		out.Payload = m.Payload
	}
	return json.Marshal(out)
}

// PongReply is the response to PING.
func PongReply() json.RawMessage {
	raw, _ := json.Marshal(New(Pong{}))
	return raw
}

// IsPong reports whether a raw response is a valid PONG message.
func IsPong(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	msg, err := Validate(raw)
	return err == nil && msg.Action() == ActionPong
}

// TranslateResult is the response of TRANSLATE_IMAGE.
type TranslateResult = result.Result[TranslationView]

// EncodeResult serializes a translation outcome as a TRANSLATE_IMAGE reply.
func EncodeResult(t domain.Translation, err error) json.RawMessage {
	var r TranslateResult
	if err != nil {
		r = result.Fail[TranslationView](err)
	} else {
		r = result.Ok(ViewOf(t))
	}
	raw, mErr := json.Marshal(r)
	if mErr != nil {
		raw, _ = json.Marshal(result.Fail[TranslationView](mErr))
	}
	return raw
}

// DecodeResult parses a TRANSLATE_IMAGE reply.
func DecodeResult(raw json.RawMessage) (TranslateResult, error) {
	var r TranslateResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, err
	}
	return r, nil
}
