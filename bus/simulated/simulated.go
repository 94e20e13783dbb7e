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

// Package simulated implements a software FlexCAN register file.
//
// The simulator models the slice of controller behavior the driver
// depends on: the freeze/halt handshake with configurable acknowledge
// latency, transmit mailbox code transitions, loopback delivery,
// acceptance-mask filtering, and the write-1-to-clear interrupt flags.
// Latencies are counted in register reads rather than wall time, so
// tests that poll through the driver are deterministic.
//
// Fault injection covers the two hangs the driver must convert into
// timeouts: a freeze handshake that never acknowledges and a transmit
// mailbox that never completes.
package simulated

import (
	flexcan "github.com/busworks/go-flexcan"
	"github.com/busworks/go-flexcan/internal/regs"
	"github.com/busworks/go-flexcan/internal/syncutil"
)

// Handshake and completion latencies, in register reads.
const (
	defaultFreezeLatency = 2
	defaultTxLatency     = 2
)

// Bus is a simulated FlexCAN register block implementing flexcan.Bus.
// The zero value is not usable; call New.
type Bus struct {
	mu  syncutil.Mutex
	mem map[uint32]uint32

	freezeLatency int
	txLatency     int
	stickFreeze   bool
	stickTx       bool

	// Handshake progress. mode tracks what the module has actually
	// reached; ackLeft counts MCR reads until it catches up with the
	// mode the MCR register requests.
	mode    busMode
	ackLeft int

	txArmed  bool
	txLeft   int
	inFlight flexcan.Frame

	timer uint32
	sent  []flexcan.Frame
}

type busMode int

const (
	modeDisabled busMode = iota
	modeFrozen
	modeRunning
)

// New returns a simulated bus with the module disabled, as after
// power-on.
func New() *Bus {
	return &Bus{
		// MCR resets with MDIS set, so the register agrees with the
		// disabled mode until a write starts a handshake.
		mem:           map[uint32]uint32{regs.MCR: regs.MCRMDIS},
		freezeLatency: defaultFreezeLatency,
		txLatency:     defaultTxLatency,
		mode:          modeDisabled,
	}
}

// SetFreezeAckLatency sets how many MCR reads a freeze-mode entry or
// exit takes to acknowledge.
func (b *Bus) SetFreezeAckLatency(reads int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freezeLatency = reads
}

// SetTxLatency sets how many transmit-mailbox CS reads a transmission
// takes to complete.
func (b *Bus) SetTxLatency(reads int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txLatency = reads
}

// StickFreezeAck makes the freeze handshake hang: the acknowledge
// never tracks the requested mode. Models a dead protocol engine.
func (b *Bus) StickFreezeAck(stuck bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stickFreeze = stuck
}

// StickTxMailbox makes armed transmissions never complete. Models a
// bus stuck dominant or a missing acknowledge.
func (b *Bus) StickTxMailbox(stuck bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stickTx = stuck
}

// Transmitted returns a copy of every frame whose transmission
// completed, in order.
func (b *Bus) Transmitted() []flexcan.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]flexcan.Frame, len(b.sent))
	copy(out, b.sent)
	return out
}

// InjectFrame delivers a frame as if received from the bus, subject to
// the programmed acceptance filter. It reports whether the frame was
// latched into the receive mailbox.
func (b *Bus) InjectFrame(f flexcan.Frame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deliver(f)
}

// Peek32 reads a register without triggering any simulation side
// effects. For test assertions only.
func (b *Bus) Peek32(off uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if off == regs.MCR {
		return b.mcrValue()
	}
	return b.mem[off]
}

// Read32 implements flexcan.Bus.
func (b *Bus) Read32(off uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch off {
	case regs.MCR:
		b.stepHandshake()
		return b.mcrValue()
	case regs.TIMER:
		b.timer++
		return b.timer
	case regs.MBCS(txMB):
		b.stepTransmit()
		return b.mem[off]
	default:
		return b.mem[off]
	}
}

// Write32 implements flexcan.Bus.
func (b *Bus) Write32(off uint32, val uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch off {
	case regs.MCR:
		b.mem[off] = val
		b.requestMode()
	case regs.IFLAG1:
		// Write-1-to-clear.
		b.mem[off] &^= val
	case regs.MBCS(txMB):
		b.mem[off] = val
		if regs.Code(val) == regs.CodeTxData && !b.txArmed {
			b.txArmed = true
			b.txLeft = b.txLatency
			b.inFlight = b.frameFromTxMailbox()
		}
	default:
		b.mem[off] = val
	}
}

const (
	txMB = 0
	rxMB = 4
)

// requestMode starts a handshake toward the mode the MCR register
// asks for.
func (b *Bus) requestMode() {
	target := b.targetMode()
	if target != b.mode {
		b.ackLeft = b.freezeLatency
	}
}

func (b *Bus) targetMode() busMode {
	mcr := b.mem[regs.MCR]
	switch {
	case mcr&regs.MCRMDIS != 0:
		return modeDisabled
	case mcr&regs.MCRFRZ != 0 && mcr&regs.MCRHALT != 0:
		return modeFrozen
	default:
		return modeRunning
	}
}

// stepHandshake advances a pending mode change by one read.
func (b *Bus) stepHandshake() {
	target := b.targetMode()
	if target == b.mode || b.stickFreeze {
		return
	}
	if b.ackLeft > 0 {
		b.ackLeft--
		return
	}
	b.mode = target
}

// mcrValue merges the written configuration bits with the status bits
// the module drives.
func (b *Bus) mcrValue() uint32 {
	v := b.mem[regs.MCR] &^ uint32(regs.MCRFRZACK|regs.MCRNOTRDY)
	switch b.mode {
	case modeDisabled:
		v |= regs.MCRNOTRDY
	case modeFrozen:
		v |= regs.MCRFRZACK | regs.MCRNOTRDY
	case modeRunning:
	}
	return v
}

// stepTransmit advances an armed transmission by one CS read and
// completes it when its latency is spent.
func (b *Bus) stepTransmit() {
	if !b.txArmed || b.stickTx || b.mode != modeRunning {
		return
	}
	if b.txLeft > 0 {
		b.txLeft--
		return
	}
	b.txArmed = false
	cs := b.mem[regs.MBCS(txMB)]
	b.mem[regs.MBCS(txMB)] = cs&^uint32(regs.CSCodeMask) |
		regs.CodeTxInactive<<regs.CSCodeShift
	b.sent = append(b.sent, b.inFlight)

	if b.mem[regs.CTRL1]&regs.CTRL1LPB != 0 {
		b.deliver(b.inFlight)
	}
}

// frameFromTxMailbox decodes the staged transmit mailbox contents.
func (b *Bus) frameFromTxMailbox() flexcan.Frame {
	var f flexcan.Frame
	cs := b.mem[regs.MBCS(txMB)]
	f.ID = regs.StdID(b.mem[regs.MBID(txMB)])
	n := regs.DLC(cs)
	if n > flexcan.MaxPayload {
		n = flexcan.MaxPayload
	}
	f.Len = uint8(n)
	wordToBytes(b.mem[regs.MBData(txMB, 0)], f.Data[:], 0)
	wordToBytes(b.mem[regs.MBData(txMB, 1)], f.Data[:], 4)
	return f
}

// deliver latches a frame into the receive mailbox if the acceptance
// filter admits it and the mailbox is armed. A frame arriving on a
// full mailbox overwrites it and marks the overrun.
func (b *Bus) deliver(f flexcan.Frame) bool {
	mask := b.mem[regs.RXMGMASK]
	want := b.mem[regs.MBID(rxMB)]
	if (f.ID<<regs.IDStdShift)&mask != want&mask {
		return false
	}

	cs := b.mem[regs.MBCS(rxMB)]
	code := regs.Code(cs)
	var next uint32
	switch code {
	case regs.CodeRxEmpty:
		next = regs.CodeRxFull
	case regs.CodeRxFull, regs.CodeRxOverrun:
		next = regs.CodeRxOverrun
	default:
		// Mailbox not armed for reception.
		return false
	}

	b.mem[regs.MBID(rxMB)] = want&^uint32(regs.IDStdMask) |
		f.ID<<regs.IDStdShift
	b.mem[regs.MBData(rxMB, 0)] = bytesToWord(f.Data[:f.Len], 0)
	b.mem[regs.MBData(rxMB, 1)] = bytesToWord(f.Data[:f.Len], 4)
	b.mem[regs.MBCS(rxMB)] = cs&^uint32(regs.CSCodeMask|regs.CSDLCMask) |
		next<<regs.CSCodeShift |
		uint32(f.Len)<<regs.CSDLCShift
	b.mem[regs.IFLAG1] |= regs.IFlagMB(rxMB)
	return true
}

func bytesToWord(data []byte, i int) uint32 {
	var w uint32
	for k := 0; k < 4; k++ {
		w <<= 8
		if i+k < len(data) {
			w |= uint32(data[i+k])
		}
	}
	return w
}

func wordToBytes(w uint32, out []byte, i int) {
	for k := 0; k < 4; k++ {
		if i+k < len(out) {
			out[i+k] = byte(w >> (8 * (3 - k)))
		}
	}
}
