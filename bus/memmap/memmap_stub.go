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

//go:build !linux

package memmap

import "errors"

// ErrUnsupported is returned by Open on platforms without /dev/mem.
var ErrUnsupported = errors.New("memmap: not supported on this platform")

// Bus is unavailable on this platform; Open always fails.
type Bus struct{}

// Open is not supported on this platform.
func Open(_ uint32, _ int) (*Bus, error) {
	return nil, ErrUnsupported
}

// Read32 implements flexcan.Bus; unreachable on this platform.
func (*Bus) Read32(_ uint32) uint32 { return 0 }

// Write32 implements flexcan.Bus; unreachable on this platform.
func (*Bus) Write32(_, _ uint32) {}

// Base returns 0 on this platform.
func (*Bus) Base() uint32 { return 0 }

// Close is a no-op on this platform.
func (*Bus) Close() error { return nil }
