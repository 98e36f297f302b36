// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

// Package asset rewrites local filesystem paths into URLs the embedded
// resource loader accepts, and serves the asset protocol over the host's
// HTTP listener.
package asset

import (
	"runtime"
	"strings"
)

// DefaultProtocol is the scheme used when the caller does not name one.
const DefaultProtocol = "asset"

// ConvertFileSrc rewrites a local filesystem path into a loadable URL.
// It is a pure function of its inputs: no filesystem check, no I/O, and
// repeat calls produce identical output. Path separators are
// percent-encoded so the whole path travels as one opaque segment.
//
// Windows and Android webviews refuse custom schemes, so there the URL is
// https-shaped: http://{protocol}.localhost/{path}. Everywhere else it is
// {protocol}://localhost/{path}.
func ConvertFileSrc(filePath string, protocol ...string) string {
	proto := DefaultProtocol
	if len(protocol) > 0 && protocol[0] != "" {
		proto = protocol[0]
	}
	windowsFormat := runtime.GOOS == "windows" || runtime.GOOS == "android"
	return convertFileSrc(filePath, proto, windowsFormat)
}

func convertFileSrc(filePath, proto string, windowsFormat bool) string {
	encoded := encodeURIComponent(filePath)
	if windowsFormat {
		return "http://" + proto + ".localhost/" + encoded
	}
	return proto + "://localhost/" + encoded
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent percent-encodes every byte the ECMAScript function of
// the same name would, which the embedded side's resource loader expects.
// Unreserved: A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
