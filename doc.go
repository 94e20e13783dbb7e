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

// Package flexcan drives the FlexCAN controller found on NXP MPC57xx
// parts (classical CAN, standard 11-bit identifiers, one transmit and
// one receive mailbox).
//
// The controller talks to hardware through the Bus interface, a 32-bit
// register read/write pair. Production code backs it with a
// memory-mapped window (see bus/memmap); tests and the canmon tool can
// use the register-level simulator in bus/simulated instead.
//
// Basic use:
//
//	bus, err := memmap.Open(flexcan.BaseCAN1, flexcan.RegionSize)
//	if err != nil { ... }
//	can, err := flexcan.New(bus)
//	if err != nil { ... }
//	if err := can.Begin(500 * physic.KiloHertz); err != nil { ... }
//	defer can.Close()
//
//	err = can.Transmit(0x123, []byte{0xDE, 0xAD, 0xBE, 0xEF})
//
// All entry points are safe for concurrent use. Transmit, Receive and
// SetFilter serialize their hardware critical sections on an internal
// lock with a bounded acquisition wait; a contended lock produces
// ErrBusy rather than an indefinite block, and every wait on a hardware
// status bit is bounded by a configurable timeout.
package flexcan
