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

// Package regs describes the FlexCAN register block of the MPC5744P.
//
// Offsets and bitfield layouts follow the MPC5744P Reference Manual,
// chapter 46 (FlexCAN). Only the registers the driver touches are listed.
// All offsets are byte offsets from the module base address; every
// register is a 32-bit word.
package regs

// Register offsets within the FlexCAN block.
const (
	MCR      = 0x00 // Module Configuration Register
	CTRL1    = 0x04 // Control 1 Register (bit timing, clock source)
	TIMER    = 0x08 // Free Running Timer (read unlocks mailboxes)
	RXMGMASK = 0x10 // Rx Mailboxes Global Acceptance Mask
	ECR      = 0x1C // Error Counter Register
	ESR1     = 0x20 // Error and Status 1
	IMASK1   = 0x28 // Interrupt Masks 1 (MB 31..0)
	IFLAG1   = 0x30 // Interrupt Flags 1 (MB 31..0, write-1-to-clear)
	CTRL2    = 0x34 // Control 2 Register
)

// Message buffer region. Each of the 64 buffers occupies 16 bytes:
// CS word, ID word, and two 4-byte data words.
const (
	MBBase   = 0x80
	MBStride = 0x10
	NumMB    = 64
)

// MBCS returns the offset of message buffer n's control/status word.
func MBCS(n int) uint32 { return MBBase + uint32(n)*MBStride }

// MBID returns the offset of message buffer n's identifier word.
func MBID(n int) uint32 { return MBCS(n) + 0x4 }

// MBData returns the offset of data word w (0 or 1) of message buffer n.
// Word 0 holds payload bytes 0-3 MSB first, word 1 holds bytes 4-7.
func MBData(n, w int) uint32 { return MBCS(n) + 0x8 + uint32(w)*4 }

// MCR bits.
const (
	MCRMDIS    = 1 << 31 // module disable
	MCRFRZ     = 1 << 30 // freeze enable
	MCRHALT    = 1 << 28 // halt request (enters freeze with FRZ)
	MCRNOTRDY  = 1 << 27 // module not ready (read-only status)
	MCRSOFTRST = 1 << 25 // soft reset
	MCRFRZACK  = 1 << 24 // freeze mode acknowledge (read-only status)

	// MCRRun is the value negating the halt state: FRZ/HALT/MDIS clear,
	// MAXMB selecting all 64 buffers.
	MCRRun = 0x0000003F
)

// CTRL1 bits. The timing fields (PRESDIV, RJW, PSEG1, PSEG2, PROPSEG,
// SMP) are owned by the bit-timing encoder.
const (
	CTRL1PresdivShift = 24
	CTRL1RJWShift     = 22
	CTRL1PSeg1Shift   = 19
	CTRL1PSeg2Shift   = 16
	CTRL1CLKSRC       = 1 << 13 // 0 = oscillator clock, 1 = peripheral clock
	CTRL1LPB          = 1 << 12 // loopback mode
	CTRL1SMP          = 1 << 7  // triple sampling
	CTRL1PropSegMask  = 0x7
)

// Message buffer CS word fields.
const (
	CSCodeShift = 24
	CSCodeMask  = 0xF << CSCodeShift
	CSSRR       = 1 << 22 // substitute remote request
	CSIDE       = 1 << 21 // extended identifier
	CSRTR       = 1 << 20 // remote transmission request
	CSDLCShift  = 16
	CSDLCMask   = 0xF << CSDLCShift
)

// Mailbox codes. Receive codes apply to buffers armed for reception,
// transmit codes to buffers armed for transmission.
const (
	CodeRxInactive = 0x0
	CodeRxFull     = 0x2
	CodeRxEmpty    = 0x4
	CodeRxOverrun  = 0x6
	CodeTxInactive = 0x8
	CodeTxData     = 0xC
)

// ID word fields. Standard identifiers occupy bits 28:18; the global
// acceptance mask register uses the same alignment.
const (
	IDStdShift = 18
	IDStdMask  = 0x7FF << IDStdShift
)

// Code extracts the mailbox code from a CS word.
func Code(cs uint32) uint32 { return (cs & CSCodeMask) >> CSCodeShift }

// DLC extracts the data length code from a CS word.
func DLC(cs uint32) uint32 { return (cs & CSDLCMask) >> CSDLCShift }

// StdID extracts the standard identifier from an ID word.
func StdID(id uint32) uint32 { return (id & IDStdMask) >> IDStdShift }

// IFlagMB returns the IFLAG1 bit for message buffer n (n < 32).
func IFlagMB(n int) uint32 { return 1 << uint(n) }

// BlockSize covers MCR through the last message buffer.
const BlockSize = MBBase + NumMB*MBStride
