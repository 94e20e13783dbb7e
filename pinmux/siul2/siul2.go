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

// Package siul2 routes controller signals through the MPC5744P System
// Integration Unit Lite 2 pad multiplexer. It implements
// flexcan.PinRouter over a register bus mapped at the SIUL2 base
// address (a separate mapping from the FlexCAN block).
package siul2

import (
	"fmt"

	flexcan "github.com/busworks/go-flexcan"
)

// Base is the SIUL2 block base address on the MPC5744P.
const Base = 0xFFFC0000

// BlockSize covers the MSCR and IMCR arrays.
const BlockSize = 0x1000

// Register layout within the SIUL2 block.
const (
	mscrBase = 0x240 // MSCR[n] at mscrBase + 4n: pad output config
	imcrBase = 0xA40 // IMCR[n] at imcrBase + 4n: peripheral input mux
)

// MSCR fields.
const (
	mscrSSSMask = 0xFF     // source signal select
	mscrIBE     = 1 << 19  // input buffer enable
	mscrOBE     = 1 << 25  // output buffer enable
	mscrSRCMax  = 3 << 28  // maximum slew rate
)

// CAN_1 signal routing values for the DEVKIT-MPC5744P.
const (
	sssCAN1Tx     = 1  // MSCR SSS selecting CAN1_TXD on the pad
	imcrCAN1Rx    = 33 // IMCR slot feeding CAN1_RXD
	imcrSSSCAN1Rx = 1  // IMCR SSS selecting the pad as the source
)

// Router programs pad and input-mux registers for the controller's two
// signals. The zero value is not usable; call New.
type Router struct {
	bus       flexcan.Bus
	txSource  uint32
	imcrSlot  uint32
	imcrValue uint32
}

// Option configures a Router.
type Option func(*Router)

// WithTxSource overrides the MSCR source signal select for the
// transmit pad.
func WithTxSource(sss uint32) Option {
	return func(r *Router) { r.txSource = sss }
}

// WithInputMux overrides the IMCR slot and source value for the
// receive signal, for controllers other than CAN_1.
func WithInputMux(slot, sss uint32) Option {
	return func(r *Router) {
		r.imcrSlot = slot
		r.imcrValue = sss
	}
}

// New returns a Router over a bus mapped at the SIUL2 base, defaulting
// to the CAN_1 routing of the reference board.
func New(bus flexcan.Bus, opts ...Option) (*Router, error) {
	if bus == nil {
		return nil, fmt.Errorf("siul2: bus must not be nil")
	}
	r := &Router{
		bus:       bus,
		txSource:  sssCAN1Tx,
		imcrSlot:  imcrCAN1Rx,
		imcrValue: imcrSSSCAN1Rx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RouteCAN implements flexcan.PinRouter: the transmit pad drives the
// controller output at maximum slew rate, the receive pad feeds the
// controller through its input mux slot.
func (r *Router) RouteCAN(txPad, rxPad uint8) error {
	r.bus.Write32(mscrOffset(txPad), r.txSource&mscrSSSMask|mscrOBE|mscrSRCMax)
	r.bus.Write32(mscrOffset(rxPad), mscrIBE)
	r.bus.Write32(imcrOffset(r.imcrSlot), r.imcrValue&mscrSSSMask)
	return nil
}

func mscrOffset(pad uint8) uint32 { return mscrBase + 4*uint32(pad) }

func imcrOffset(slot uint32) uint32 { return imcrBase + 4*slot }
