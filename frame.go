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

package flexcan

import "fmt"

// Frame limits for classical CAN with standard identifiers.
const (
	// MaxStandardID is the highest valid 11-bit identifier.
	MaxStandardID = 0x7FF
	// MaxPayload is the classical CAN payload limit in bytes.
	MaxPayload = 8
)

// Frame is a classical CAN frame with a standard 11-bit identifier.
// Only the first Len bytes of Data are significant.
//
// The Extended and Remote flags exist so received frames can carry the
// wire-level frame type, but the driver neither transmits nor accepts
// them: extended identifiers and remote requests are outside this
// controller configuration and Validate rejects frames that set either.
type Frame struct {
	ID       uint32
	Len      uint8
	Data     [MaxPayload]byte
	Extended bool
	Remote   bool
}

// Validate reports whether the frame can be carried by this driver.
func (f Frame) Validate() error {
	if f.ID > MaxStandardID {
		return fmt.Errorf("%w: 0x%X exceeds 11 bits", ErrInvalidID, f.ID)
	}
	if f.Len > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLength, f.Len)
	}
	if f.Extended {
		return ErrExtendedNotSupported
	}
	if f.Remote {
		return ErrRemoteNotSupported
	}
	return nil
}

// Payload returns the significant data bytes as a slice of f's backing
// array. The caller must copy it to retain it past the next reuse of f.
func (f *Frame) Payload() []byte {
	return f.Data[:f.Len]
}

// String formats the frame in the conventional id#data notation.
func (f Frame) String() string {
	return fmt.Sprintf("%03X#%X", f.ID, f.Data[:f.Len])
}
