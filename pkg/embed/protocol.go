package embed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

// Message type tags posted by the embedded form.
const (
	TypeHeight    = "form-height"
	TypeSubmitted = "form-submitted"
)

var (
	// ErrUnknownMessage is returned for payloads with an unrecognised type.
	ErrUnknownMessage = errors.New("embed: unknown message type")
	// ErrInvalidHeight is returned when a height payload is not a positive
	// finite number.
	ErrInvalidHeight = errors.New("embed: invalid height")
)

// Message is one of HeightMessage or SubmittedMessage.
type Message interface {
	Type() string
	isMessage()
}

// HeightMessage asks the host to resize the iframe.
type HeightMessage struct {
	Height int
}

// Type implements Message.
func (HeightMessage) Type() string { return TypeHeight }
func (HeightMessage) isMessage()   {}

// MarshalJSON encodes the wire shape `{"type":"form-height","height":N}`.
func (m HeightMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Height int    `json:"height"`
	}{TypeHeight, m.Height})
}

// SubmittedMessage reports a successful submission.
type SubmittedMessage struct{}

// Type implements Message.
func (SubmittedMessage) Type() string { return TypeSubmitted }
func (SubmittedMessage) isMessage()   {}

// MarshalJSON encodes the wire shape `{"type":"form-submitted"}`.
func (SubmittedMessage) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"form-submitted"}`), nil
}

type envelope struct {
	Type   string           `json:"type"`
	Height *json.RawMessage `json:"height,omitempty"`
}

// Decode parses a raw postMessage payload.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("embed: decode message: %w", err)
	}
	switch strings.TrimSpace(env.Type) {
	case TypeHeight:
		if env.Height == nil {
			return nil, ErrInvalidHeight
		}
		var height float64
		if err := json.Unmarshal(*env.Height, &height); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHeight, err)
		}
		if math.IsNaN(height) || math.IsInf(height, 0) || height <= 0 {
			return nil, ErrInvalidHeight
		}
		return HeightMessage{Height: int(math.Ceil(height))}, nil
	case TypeSubmitted:
		return SubmittedMessage{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}

// Listener is the Go rendition of the host-page handler. It accepts messages
// only from Origin and reports a height only when it differs from the last
// one applied, so duplicate deliveries are harmless.
type Listener struct {
	Origin string

	mu         sync.Mutex
	lastHeight int
}

// NewListener returns a Listener bound to the origin of frameURL.
func NewListener(frameURL string) (*Listener, error) {
	origin, err := OriginOf(frameURL)
	if err != nil {
		return nil, err
	}
	return &Listener{Origin: origin}, nil
}

// Dispatch decodes raw when origin matches. The boolean is false when the
// message must be ignored: foreign origin or a height equal to the current
// one. Decoding errors are only returned for trusted origins.
func (l *Listener) Dispatch(origin string, raw []byte) (Message, bool, error) {
	if l == nil || l.Origin == "" || !strings.EqualFold(strings.TrimSpace(origin), l.Origin) {
		return nil, false, nil
	}
	msg, err := Decode(raw)
	if err != nil {
		return nil, false, err
	}
	if height, ok := msg.(HeightMessage); ok {
		l.mu.Lock()
		defer l.mu.Unlock()
		if height.Height == l.lastHeight {
			return msg, false, nil
		}
		l.lastHeight = height.Height
	}
	return msg, true, nil
}

// Height returns the last applied height.
func (l *Listener) Height() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastHeight
}
