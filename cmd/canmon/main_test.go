// Copyright 2026 The go-flexcan Authors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flexcan "github.com/busworks/go-flexcan"
)

func TestParseFrame(t *testing.T) {
	t.Parallel()
	f, err := parseFrame("123#DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123), f.ID)
	assert.Equal(t, uint8(4), f.Len)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, f.Payload())

	f, err = parseFrame("7FF#")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x7FF), f.ID)
	assert.Equal(t, uint8(0), f.Len)
}

func TestParseFrameErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "123"},
		{"bad identifier", "xyz#00"},
		{"identifier too wide", "800#00"},
		{"odd hex digits", "123#ABC"},
		{"payload too long", "123#00112233445566778899"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseFrame(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestSLCANFrame(t *testing.T) {
	t.Parallel()
	f := flexcan.Frame{ID: 0x123, Len: 4, Data: [8]byte{0xDE, 0xAD, 0xBE, 0xEF}}
	assert.Equal(t, "t1234DEADBEEF\r", slcanFrame(f))

	assert.Equal(t, "t0420\r", slcanFrame(flexcan.Frame{ID: 0x42}))
}
