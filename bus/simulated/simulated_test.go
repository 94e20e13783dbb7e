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

package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flexcan "github.com/busworks/go-flexcan"
	"github.com/busworks/go-flexcan/internal/regs"
)

// runBus drives the freeze handshake by hand and leaves the module
// running with the receive mailbox armed open.
func runBus(t *testing.T) *Bus {
	t.Helper()
	b := New()
	b.Write32(regs.MCR, regs.MCRFRZ|regs.MCRHALT)
	for n := 0; n < defaultFreezeLatency+1; n++ {
		b.Read32(regs.MCR)
	}
	require.NotZero(t, b.Read32(regs.MCR)&regs.MCRFRZACK)

	b.Write32(regs.MBID(rxMB), 0)
	b.Write32(regs.MBCS(rxMB), regs.CodeRxEmpty<<regs.CSCodeShift)
	b.Write32(regs.RXMGMASK, 0)
	b.Write32(regs.MBCS(txMB), regs.CodeTxInactive<<regs.CSCodeShift)

	b.Write32(regs.MCR, regs.MCRRun)
	for n := 0; n < defaultFreezeLatency+1; n++ {
		b.Read32(regs.MCR)
	}
	require.Zero(t, b.Read32(regs.MCR)&(regs.MCRFRZACK|regs.MCRNOTRDY))
	return b
}

func TestFreezeHandshakeLatency(t *testing.T) {
	t.Parallel()
	b := New()
	b.SetFreezeAckLatency(3)
	b.Write32(regs.MCR, regs.MCRFRZ|regs.MCRHALT)

	// The acknowledge appears only after the configured number of reads.
	for n := 0; n < 3; n++ {
		assert.Zero(t, b.Read32(regs.MCR)&regs.MCRFRZACK)
	}
	assert.NotZero(t, b.Read32(regs.MCR)&regs.MCRFRZACK)
}

func TestStickFreezeAck(t *testing.T) {
	t.Parallel()
	b := New()
	b.StickFreezeAck(true)
	b.Write32(regs.MCR, regs.MCRFRZ|regs.MCRHALT)
	for n := 0; n < 100; n++ {
		assert.Zero(t, b.Read32(regs.MCR)&regs.MCRFRZACK)
	}
}

func TestDisabledReportsNotReady(t *testing.T) {
	t.Parallel()
	b := New()
	// The module powers on disabled and must stay there: reads alone
	// never start a mode transition.
	for n := 0; n < 10; n++ {
		mcr := b.Read32(regs.MCR)
		assert.NotZero(t, mcr&regs.MCRMDIS)
		assert.NotZero(t, mcr&regs.MCRNOTRDY)
	}
}

func TestIFlagWriteOneToClear(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	require.True(t, b.InjectFrame(flexcan.Frame{ID: 0x123, Len: 1}))
	require.NotZero(t, b.Read32(regs.IFLAG1)&regs.IFlagMB(rxMB))

	// Clearing an unrelated bit leaves the flag alone.
	b.Write32(regs.IFLAG1, regs.IFlagMB(txMB))
	assert.NotZero(t, b.Read32(regs.IFLAG1)&regs.IFlagMB(rxMB))

	b.Write32(regs.IFLAG1, regs.IFlagMB(rxMB))
	assert.Zero(t, b.Read32(regs.IFLAG1)&regs.IFlagMB(rxMB))
}

func TestInjectFrameFilter(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	b.Write32(regs.MBID(rxMB), 0x123<<regs.IDStdShift)
	b.Write32(regs.RXMGMASK, uint32(regs.IDStdMask))

	assert.False(t, b.InjectFrame(flexcan.Frame{ID: 0x456, Len: 1}))
	assert.True(t, b.InjectFrame(flexcan.Frame{ID: 0x123, Len: 1}))
}

func TestInjectFrameNotArmed(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	b.Write32(regs.MBCS(rxMB), regs.CodeRxInactive<<regs.CSCodeShift)
	assert.False(t, b.InjectFrame(flexcan.Frame{ID: 0x123, Len: 1}))
}

func TestInjectFrameOverrun(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	require.True(t, b.InjectFrame(flexcan.Frame{ID: 0x100, Len: 1, Data: [8]byte{0x01}}))
	require.True(t, b.InjectFrame(flexcan.Frame{ID: 0x101, Len: 1, Data: [8]byte{0x02}}))

	cs := b.Peek32(regs.MBCS(rxMB))
	assert.Equal(t, uint32(regs.CodeRxOverrun), regs.Code(cs))
	// The later frame overwrites the earlier one.
	assert.Equal(t, uint32(0x101), regs.StdID(b.Peek32(regs.MBID(rxMB))))
	assert.Equal(t, uint32(0x02000000), b.Peek32(regs.MBData(rxMB, 0)))
}

func TestTransmitCompletesAfterLatency(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	b.SetTxLatency(2)

	b.Write32(regs.MBID(txMB), 0x123<<regs.IDStdShift)
	b.Write32(regs.MBData(txMB, 0), 0xDEADBEEF)
	b.Write32(regs.MBCS(txMB), regs.CodeTxData<<regs.CSCodeShift|4<<regs.CSDLCShift)

	// The mailbox stays armed for the configured number of reads.
	for n := 0; n < 2; n++ {
		assert.Equal(t, uint32(regs.CodeTxData), regs.Code(b.Read32(regs.MBCS(txMB))))
	}
	b.Read32(regs.MBCS(txMB))
	assert.Equal(t, uint32(regs.CodeTxInactive), regs.Code(b.Peek32(regs.MBCS(txMB))))

	sent := b.Transmitted()
	require.Len(t, sent, 1)
	assert.Equal(t, uint32(0x123), sent[0].ID)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, sent[0].Payload())
}

func TestTransmitLoopbackDelivery(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	b.Write32(regs.CTRL1, regs.CTRL1LPB)
	b.SetTxLatency(0)

	b.Write32(regs.MBID(txMB), 0x042<<regs.IDStdShift)
	b.Write32(regs.MBData(txMB, 0), 0xAB000000)
	b.Write32(regs.MBCS(txMB), regs.CodeTxData<<regs.CSCodeShift|1<<regs.CSDLCShift)
	b.Read32(regs.MBCS(txMB))

	assert.Equal(t, uint32(regs.CodeRxFull), regs.Code(b.Peek32(regs.MBCS(rxMB))))
	assert.Equal(t, uint32(0x042), regs.StdID(b.Peek32(regs.MBID(rxMB))))
}

func TestStickTxMailbox(t *testing.T) {
	t.Parallel()
	b := runBus(t)
	b.StickTxMailbox(true)
	b.SetTxLatency(0)

	b.Write32(regs.MBCS(txMB), regs.CodeTxData<<regs.CSCodeShift)
	for n := 0; n < 50; n++ {
		assert.Equal(t, uint32(regs.CodeTxData), regs.Code(b.Read32(regs.MBCS(txMB))))
	}
	assert.Empty(t, b.Transmitted())
}

func TestTimerIncrementsOnRead(t *testing.T) {
	t.Parallel()
	b := New()
	first := b.Read32(regs.TIMER)
	assert.Equal(t, first+1, b.Read32(regs.TIMER))
}
