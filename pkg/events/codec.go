package events

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Envelope is the inbox wire format.
type Envelope struct {
	Kind       Kind               `msgpack:"kind"`
	OccurredAt time.Time          `msgpack:"occurred_at"`
	Body       msgpack.RawMessage `msgpack:"body"`
}

// Encode wraps ev in a msgpack envelope.
func Encode(ev Inbound) ([]byte, error) {
	if ev == nil {
		return nil, ErrUnknownEvent
	}
	body, err := msgpack.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", ev.Kind(), err)
	}
	data, err := msgpack.Marshal(Envelope{Kind: ev.Kind(), OccurredAt: time.Now(), Body: body})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", ev.Kind(), err)
	}
	return data, nil
}

// Decode reverses Encode. Envelopes with an unrecognised kind fail with
// ErrUnknownEvent.
func Decode(data []byte) (Inbound, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	target, err := New(env.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, env.Kind)
	}
	if err := msgpack.Unmarshal(env.Body, target); err != nil {
		return nil, fmt.Errorf("decode %s body: %w", env.Kind, err)
	}
	return deref(target), nil
}

// DecodeJSON parses a JSON body of the given kind, as received from the bus.
func DecodeJSON(kind Kind, data []byte) (Inbound, error) {
	target, err := New(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, kind)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return deref(target), nil
}

// deref turns the pointer returned by New back into the value type so
// consumers switch on value types only.
func deref(ev Inbound) Inbound {
	return reflect.ValueOf(ev).Elem().Interface().(Inbound)
}
