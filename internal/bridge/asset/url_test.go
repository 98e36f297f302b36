// Copyright 2019-2024 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0
// SPDX-License-Identifier: MIT

package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertFileSrc_PosixPath(t *testing.T) {
	got := convertFileSrc("/app/img.png", DefaultProtocol, false)
	assert.Equal(t, "asset://localhost/%2Fapp%2Fimg.png", got)
}

func TestConvertFileSrc_WindowsPath(t *testing.T) {
	got := convertFileSrc(`C:\app\img.png`, DefaultProtocol, true)
	assert.Equal(t, "http://asset.localhost/C%3A%5Capp%5Cimg.png", got)
}

func TestConvertFileSrc_CustomProtocol(t *testing.T) {
	got := convertFileSrc("/srv/media/track.mp3", "stream", false)
	assert.Equal(t, "stream://localhost/%2Fsrv%2Fmedia%2Ftrack.mp3", got)
}

func TestConvertFileSrc_Deterministic(t *testing.T) {
	paths := []string{"/app/img.png", `C:\app\img.png`, "/tmp/with space/ünïcode.bin"}
	for _, p := range paths {
		first := ConvertFileSrc(p)
		second := ConvertFileSrc(p)
		assert.Equal(t, first, second, "repeat calls must be identical for %q", p)
	}
}

func TestConvertFileSrc_DefaultsToAssetProtocol(t *testing.T) {
	assert.Contains(t, ConvertFileSrc("/app/img.png"), "asset")
	assert.Contains(t, ConvertFileSrc("/app/img.png", "media"), "media")
}

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain-name_1.png", "plain-name_1.png"},
		{"/a/b", "%2Fa%2Fb"},
		{`C:\x`, "C%3A%5Cx"},
		{"with space", "with%20space"},
		{"q?&=#", "q%3F%26%3D%23"},
		{"!~*'()", "!~*'()"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodeURIComponent(tt.in), "input %q", tt.in)
	}
}
