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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busworks/go-flexcan/internal/regs"
	"github.com/busworks/go-flexcan/internal/syncutil"
)

// fakeBus is a dumb register file: reads return what was written, with
// none of the handshake behavior of bus/simulated. Useful for the
// paths where the hardware never answers.
type fakeBus struct {
	mem    map[uint32]uint32
	writes int
}

func newFakeBus() *fakeBus {
	return &fakeBus{mem: make(map[uint32]uint32)}
}

func (b *fakeBus) Read32(off uint32) uint32 { return b.mem[off] }

func (b *fakeBus) Write32(off uint32, val uint32) {
	b.writes++
	b.mem[off] = val
}

// readyController hand-assembles a controller in the ready state so
// lock and mailbox paths can be exercised without a bring-up handshake.
func readyController(b Bus) *Controller {
	c, err := New(b,
		WithLockTimeout(time.Millisecond),
		WithReceiveLockTimeout(time.Millisecond),
		WithMailboxTimeout(2*time.Millisecond))
	if err != nil {
		panic(err)
	}
	c.hw = syncutil.NewTimedMutex()
	c.state.Store(stateReady)
	return c
}

func TestNewNilBus(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	assert.Error(t, err)
}

func TestOptionValidation(t *testing.T) {
	t.Parallel()
	_, err := New(newFakeBus(), WithClock(0))
	assert.ErrorIs(t, err, ErrBitTimingUnreachable)

	_, err = New(newFakeBus(), WithPinRouter(nil))
	assert.Error(t, err)
}

func TestTransmitValidatesBeforeHardware(t *testing.T) {
	t.Parallel()
	b := newFakeBus()
	c, err := New(b)
	require.NoError(t, err)

	// Argument errors take precedence over readiness and touch nothing.
	assert.ErrorIs(t, c.Transmit(MaxStandardID+1, nil), ErrInvalidID)
	assert.ErrorIs(t, c.Transmit(0x123, make([]byte, 9)), ErrInvalidLength)
	assert.Zero(t, b.writes)
}

func TestBeginHandshakeNeverAcks(t *testing.T) {
	t.Parallel()
	b := newFakeBus()
	c, err := New(b, WithConfigTimeout(2*time.Millisecond))
	require.NoError(t, err)

	err = c.Begin(DefaultClock / 80)
	require.ErrorIs(t, err, ErrConfigTimeout)
	assert.Equal(t, stateDisabled, c.state.Load())
	assert.NotZero(t, b.mem[regs.MCR]&regs.MCRMDIS)
	assert.NoError(t, c.Close())
}

func TestTransmitLockBusy(t *testing.T) {
	t.Parallel()
	c := readyController(newFakeBus())
	c.hw.Lock()
	defer c.hw.Unlock()

	err := c.Transmit(0x123, []byte{1})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestReceiveLockBusy(t *testing.T) {
	t.Parallel()
	c := readyController(newFakeBus())
	c.hw.Lock()
	defer c.hw.Unlock()

	_, _, err := c.Receive()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestTransmitMailboxNeverInactive(t *testing.T) {
	t.Parallel()
	b := newFakeBus()
	c := readyController(b)
	// Mailbox reads as armed and the fake never completes it.
	b.mem[regs.MBCS(txMailbox)] = regs.CodeTxData << regs.CSCodeShift

	err := c.Transmit(0x123, []byte{1})
	assert.ErrorIs(t, err, ErrTxMailboxBusy)
}

func TestTransmitCompletionNeverConfirms(t *testing.T) {
	t.Parallel()
	b := newFakeBus()
	c := readyController(b)
	b.mem[regs.MBCS(txMailbox)] = regs.CodeTxInactive << regs.CSCodeShift

	// The arm write lands, then reads keep returning the armed code.
	err := c.Transmit(0x123, []byte{0xAB})
	assert.ErrorIs(t, err, ErrTxTimeout)
	assert.Equal(t, uint32(regs.CodeTxData), regs.Code(b.mem[regs.MBCS(txMailbox)]))
	assert.Equal(t, uint32(0x123)<<regs.IDStdShift, b.mem[regs.MBID(txMailbox)])
	assert.Equal(t, uint32(0xAB000000), b.mem[regs.MBData(txMailbox, 0)])
}

func TestAvailableSignals(t *testing.T) {
	t.Parallel()
	b := newFakeBus()
	c := readyController(b)

	b.mem[regs.MBCS(rxMailbox)] = regs.CodeRxEmpty << regs.CSCodeShift
	assert.False(t, c.Available())

	// Mailbox code alone.
	b.mem[regs.MBCS(rxMailbox)] = regs.CodeRxFull << regs.CSCodeShift
	assert.True(t, c.Available())

	// Interrupt flag alone.
	b.mem[regs.MBCS(rxMailbox)] = regs.CodeRxEmpty << regs.CSCodeShift
	b.mem[regs.IFLAG1] = regs.IFlagMB(rxMailbox)
	assert.True(t, c.Available())
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRetryable(ErrBusy))
	assert.True(t, IsRetryable(ErrTxMailboxBusy))
	assert.True(t, IsRetryable(ErrTxTimeout))
	assert.True(t, IsRetryable(ErrConfigTimeout))
	assert.False(t, IsRetryable(ErrInvalidID))
	assert.False(t, IsRetryable(ErrNotReady))
	assert.False(t, IsRetryable(nil))
}
