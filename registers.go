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

import "github.com/busworks/go-flexcan/internal/regs"

// Module base addresses on the MPC5744P, for use with bus/memmap.
const (
	BaseCAN0 uint32 = 0xFFEC0000
	BaseCAN1 uint32 = 0xFBEC0000

	// RegionSize covers MCR through the last message buffer.
	RegionSize = regs.BlockSize
)

// Bus is the register access seam between the controller state machine
// and hardware. Offsets are byte offsets from the FlexCAN module base;
// every access is a full 32-bit word.
//
// Implementations must make each call observable in program order with
// respect to other calls on the same Bus; the driver relies on a write
// to a mailbox CS word becoming visible before the subsequent status
// poll. bus/memmap maps the physical register block, bus/simulated
// provides a software register file for tests.
type Bus interface {
	Read32(off uint32) uint32
	Write32(off uint32, val uint32)
}

// PinRouter connects two logical pad numbers to the controller's
// transmit and receive signal lines. It is invoked exactly once during
// Begin. pinmux/siul2 implements it for the MPC5744P pad multiplexer;
// NopRouter satisfies it when the bus is simulated.
type PinRouter interface {
	RouteCAN(txPad, rxPad uint8) error
}

// NopRouter is a PinRouter that routes nothing. Use it with simulated
// buses, where no physical pads exist.
type NopRouter struct{}

// RouteCAN implements PinRouter.
func (NopRouter) RouteCAN(_, _ uint8) error { return nil }

// Default pad assignment for CAN_1 on the DEVKIT-MPC5744P:
// PA14 (J2-18) carries CAN1_TXD and PA15 (J2-20) carries CAN1_RXD.
const (
	DefaultTxPad uint8 = 14
	DefaultRxPad uint8 = 15
)
