// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NewCommandNotFoundError("missing_cmd")

	assert.True(t, errors.Is(err, &Error{Kind: KindCommandNotFound}))
	assert.True(t, errors.Is(err, &Error{Kind: KindCommandNotFound, Command: "missing_cmd"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindCommandNotFound, Command: "other"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindProtocol}))
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewHandlerError("write_file", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write_file")
	assert.Contains(t, err.Error(), "disk full")
}

func TestToPayload_BridgeError(t *testing.T) {
	p := ToPayload(NewCommandNotFoundError("missing_cmd"))

	assert.Equal(t, KindCommandNotFound, p.Kind)
	assert.Equal(t, "missing_cmd", p.Command)
	assert.Equal(t, "command not found", p.Message)
}

func TestToPayload_PlainErrorBecomesHandlerError(t *testing.T) {
	p := ToPayload(fmt.Errorf("boom"))

	assert.Equal(t, KindHandler, p.Kind)
	assert.Equal(t, "boom", p.Message)
}

func TestErrorPayload_WireRoundTrip(t *testing.T) {
	original := ToPayload(NewCancelledError("webview destroyed"))

	data, err := EncodeValue(original)
	require.NoError(t, err)

	var decoded any
	require.NoError(t, DecodeValueInto(data, &decoded))

	p, ok := ErrorPayloadFrom(decoded)
	require.True(t, ok)
	assert.Equal(t, KindCancelled, p.Kind)
	assert.Equal(t, "webview destroyed", p.Message)

	back := p.AsError()
	assert.True(t, errors.Is(back, &Error{Kind: KindCancelled}))
}

func TestErrorPayloadFrom_NonError(t *testing.T) {
	_, ok := ErrorPayloadFrom(map[string]any{"content": "hi"})
	assert.False(t, ok)

	_, ok = ErrorPayloadFrom("just a string")
	assert.False(t, ok)
}
