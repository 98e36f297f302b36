// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package protocol

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// The wire representation is CBOR. Unlike JSON it keeps integers and
// floats apart and carries byte strings natively, so binary payloads are
// never mistaken for text and numbers never silently truncate.

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("protocol: invalid encode options: %v", err))
	}
	// IntDecConvertSignedOrBigInt keeps integers signed where they fit
	// and falls back to big.Int above MaxInt64, so a handler returning a
	// huge uint64 can never produce a frame the peer refuses to decode.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSignedOrBigInt,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("protocol: invalid decode options: %v", err))
	}
}

// Encode serializes a message into its wire bytes.
func Encode(m Message) ([]byte, error) {
	data, err := encMode.Marshal(m)
	if err != nil {
		return nil, NewProtocolError("encode message", err)
	}
	return data, nil
}

// Decode parses wire bytes back into a message. Failures are protocol
// errors: an ill-formed frame is a bridge bug, not an application error.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := decMode.Unmarshal(data, &m); err != nil {
		return Message{}, NewProtocolError("malformed wire message", err)
	}
	if m.Kind == "" {
		return Message{}, NewProtocolError("message missing kind", nil)
	}
	return m, nil
}

// EncodeValue serializes a standalone payload value, used when a handler
// result has to be re-encoded for a differently framed transport.
func EncodeValue(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, NewProtocolError("encode value", err)
	}
	return data, nil
}

// DecodeValueInto parses a standalone payload into out, which must be a
// pointer. Command handlers use this to view the opaque invocation payload
// through their own argument struct.
func DecodeValueInto(data []byte, out any) error {
	if err := decMode.Unmarshal(data, out); err != nil {
		return NewProtocolError("decode value", err)
	}
	return nil
}

// RedecodePayload converts an already-decoded opaque value (maps, slices,
// primitives) into a typed struct by round-tripping it through the codec.
// Handlers use it to read their argument shape out of the invocation
// payload without hand-walking maps.
func RedecodePayload(payload, out any) error {
	data, err := EncodeValue(payload)
	if err != nil {
		return err
	}
	return DecodeValueInto(data, out)
}

// ErrorPayloadFrom recovers an ErrorPayload from a decoded opaque value.
// The second return is false when the value does not look like a bridge
// error payload at all.
func ErrorPayloadFrom(v any) (ErrorPayload, bool) {
	switch p := v.(type) {
	case ErrorPayload:
		return p, true
	case map[string]any:
		kind, ok := p["kind"].(string)
		if !ok {
			return ErrorPayload{}, false
		}
		out := ErrorPayload{Kind: ErrorKind(kind)}
		if cmd, ok := p["command"].(string); ok {
			out.Command = cmd
		}
		if msg, ok := p["message"].(string); ok {
			out.Message = msg
		}
		return out, true
	default:
		return ErrorPayload{}, false
	}
}
