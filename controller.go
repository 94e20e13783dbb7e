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
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/busworks/go-flexcan/internal/regs"
	"github.com/busworks/go-flexcan/internal/syncutil"
)

// Mailbox assignment. Each mailbox is bound permanently to one role.
const (
	txMailbox = 0
	rxMailbox = 4
)

// Acceptance mask values for SetFilter. A mask bit set to zero means
// "don't care" for the corresponding identifier bit.
const (
	// MaskAcceptAll matches every identifier.
	MaskAcceptAll uint32 = 0
	// MaskExact requires all 11 identifier bits to match.
	MaskExact uint32 = MaxStandardID
)

// Controller lifecycle states.
const (
	stateUninitialized uint32 = iota
	stateInitializing
	stateReady
	stateDisabled
)

// Controller owns one FlexCAN module: its lifecycle, bit timing, the
// dedicated transmit and receive mailboxes, and the acceptance filter.
// Create it with New, bring it up with Begin.
//
// All methods are safe for concurrent use. Hardware critical sections
// are serialized on an internal lock with bounded acquisition; the
// post-arm transmit-completion wait deliberately runs outside the lock
// (see Transmit).
type Controller struct {
	bus    Bus
	router PinRouter
	txPad  uint8
	rxPad  uint8

	clock    physic.Frequency
	loopback bool

	lockTimeout    time.Duration
	rxLockTimeout  time.Duration
	configTimeout  time.Duration
	mailboxTimeout time.Duration
	pollInterval   time.Duration

	mu    syncutil.RWMutex // guards lifecycle transitions and hw
	hw    *syncutil.TimedMutex
	state atomic.Uint32

	timing  BitTiming
	bitrate physic.Frequency

	// filterID is the programmed acceptance identifier. The hardware
	// overwrites the mailbox ID field with each received frame's
	// identifier, so re-arming must restore it. Written under mu
	// during Begin and under hw afterwards.
	filterID uint32
}

// New returns a Controller over the given register bus. The controller
// is inert until Begin is called.
func New(bus Bus, opts ...Option) (*Controller, error) {
	if bus == nil {
		return nil, errors.New("bus must not be nil")
	}
	c := &Controller{
		bus:            bus,
		router:         NopRouter{},
		txPad:          DefaultTxPad,
		rxPad:          DefaultRxPad,
		clock:          DefaultClock,
		lockTimeout:    DefaultLockTimeout,
		rxLockTimeout:  DefaultRxLockTimeout,
		configTimeout:  DefaultConfigTimeout,
		mailboxTimeout: DefaultMailboxTimeout,
		pollInterval:   defaultPollInterval,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Begin configures the controller for the given bit rate and brings it
// to the ready state. It is idempotent: calling Begin on a ready
// controller returns nil without reconfiguring anything.
//
// On any handshake timeout the module is left disabled, the error
// wraps ErrConfigTimeout, and Begin may be retried.
func (c *Controller) Begin(bitrate physic.Frequency) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Load() == stateReady {
		return nil
	}

	timing, err := ComputeBitTiming(c.clock, bitrate)
	if err != nil {
		return err
	}

	c.state.Store(stateInitializing)
	if err := c.bringUp(timing); err != nil {
		// Leave the module disabled so a retry starts clean.
		c.bus.Write32(regs.MCR, c.bus.Read32(regs.MCR)|regs.MCRMDIS)
		c.state.Store(stateDisabled)
		return err
	}

	if c.hw == nil {
		c.hw = syncutil.NewTimedMutex()
	}
	c.timing = timing
	c.bitrate = bitrate
	c.state.Store(stateReady)
	Debugf("flexcan: ready, %s, %d quanta/bit, sample point %d.%d%%",
		bitrate, timing.Quanta(), timing.SamplePoint()/10, timing.SamplePoint()%10)
	return nil
}

// bringUp runs the freeze-mode configuration sequence.
func (c *Controller) bringUp(timing BitTiming) error {
	b := c.bus

	// Disable the module before touching the clock source.
	b.Write32(regs.MCR, b.Read32(regs.MCR)|regs.MCRMDIS)

	// Protocol engine clock: oscillator.
	b.Write32(regs.CTRL1, b.Read32(regs.CTRL1)&^uint32(regs.CTRL1CLKSRC))

	// Re-enable with freeze and halt requested, wait for the freeze
	// acknowledge before writing configuration registers.
	mcr := b.Read32(regs.MCR) &^ uint32(regs.MCRMDIS)
	b.Write32(regs.MCR, mcr|regs.MCRFRZ|regs.MCRHALT)
	frozen := func() bool { return b.Read32(regs.MCR)&regs.MCRFRZACK != 0 }
	if !waitFor(frozen, c.configTimeout, c.pollInterval) {
		return fmt.Errorf("enter freeze: %w", ErrConfigTimeout)
	}

	ctrl1 := timing.CTRL1()
	if c.loopback {
		ctrl1 |= regs.CTRL1LPB
	}
	b.Write32(regs.CTRL1, ctrl1)

	// Every mailbox to inactive before assigning roles.
	for i := 0; i < regs.NumMB; i++ {
		b.Write32(regs.MBCS(i), 0)
	}

	// Receive mailbox: standard frames, open filter, armed empty.
	// Transmit mailbox parked inactive.
	c.filterID = 0
	b.Write32(regs.MBID(rxMailbox), 0)
	b.Write32(regs.MBCS(rxMailbox), regs.CodeRxEmpty<<regs.CSCodeShift)
	b.Write32(regs.RXMGMASK, MaskAcceptAll<<regs.IDStdShift)
	b.Write32(regs.MBCS(txMailbox), regs.CodeTxInactive<<regs.CSCodeShift)

	// Route the two pads to the controller's tx/rx signals.
	if err := c.router.RouteCAN(c.txPad, c.rxPad); err != nil {
		return fmt.Errorf("route pins: %w", err)
	}

	// Negate halt and wait for the module to leave freeze mode.
	b.Write32(regs.MCR, regs.MCRRun)
	running := func() bool {
		return b.Read32(regs.MCR)&(regs.MCRFRZACK|regs.MCRNOTRDY) == 0
	}
	if !waitFor(running, c.configTimeout, c.pollInterval) {
		return fmt.Errorf("leave freeze: %w", ErrConfigTimeout)
	}
	return nil
}

// Close disables the module and discards any unread receive state. It
// is a no-op on a controller that never reached Begin, and is safe to
// call after a partially failed Begin.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state.Load()
	if st != stateReady && st != stateInitializing {
		return nil
	}

	c.bus.Write32(regs.IFLAG1, regs.IFlagMB(rxMailbox))
	c.bus.Write32(regs.MBCS(rxMailbox), regs.CodeRxInactive<<regs.CSCodeShift)
	c.bus.Write32(regs.MCR, c.bus.Read32(regs.MCR)|regs.MCRMDIS)

	c.hw = nil
	c.state.Store(stateDisabled)
	return nil
}

// hwLock returns the hardware lock, or nil if the controller is not
// ready.
func (c *Controller) hwLock() *syncutil.TimedMutex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Load() != stateReady {
		return nil
	}
	return c.hw
}

// Transmit sends one standard data frame and waits, bounded, for the
// hardware to confirm completion. Arguments are validated before any
// hardware is touched: identifiers above 11 bits and payloads above 8
// bytes are rejected, never truncated.
//
// The hardware lock covers only the arm step; it is released before
// the completion wait so a slow bus does not serialize callers on wire
// time. Only one frame is in flight at a time system-wide, enforced by
// the mailbox state rather than the lock.
func (c *Controller) Transmit(id uint32, data []byte) error {
	if id > MaxStandardID {
		return fmt.Errorf("%w: 0x%X exceeds 11 bits", ErrInvalidID, id)
	}
	if len(data) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(data))
	}
	hw := c.hwLock()
	if hw == nil {
		return ErrNotReady
	}
	if !hw.TryLockTimeout(c.lockTimeout) {
		return fmt.Errorf("transmit: %w", ErrBusy)
	}

	b := c.bus
	inactive := func() bool {
		return regs.Code(b.Read32(regs.MBCS(txMailbox))) == regs.CodeTxInactive
	}
	if !waitFor(inactive, c.mailboxTimeout, c.pollInterval) {
		hw.Unlock()
		return fmt.Errorf("transmit: %w", ErrTxMailboxBusy)
	}

	// Stage identifier, frame type and payload while the mailbox is
	// inactive, then arm with a single CS write.
	cs := uint32(regs.CSSRR) | uint32(len(data))<<regs.CSDLCShift
	b.Write32(regs.MBCS(txMailbox), cs|regs.CodeTxInactive<<regs.CSCodeShift)
	b.Write32(regs.MBID(txMailbox), id<<regs.IDStdShift)
	b.Write32(regs.MBData(txMailbox, 0), packWord(data, 0))
	b.Write32(regs.MBData(txMailbox, 1), packWord(data, 4))
	b.Write32(regs.MBCS(txMailbox), cs|regs.CodeTxData<<regs.CSCodeShift)

	hw.Unlock()

	if !waitFor(inactive, c.mailboxTimeout, c.pollInterval) {
		return fmt.Errorf("transmit: %w", ErrTxTimeout)
	}
	return nil
}

// Receive consumes the frame latched in the receive mailbox, if any.
// The second return value reports whether a frame was present; its
// absence is not an error. The no-message path never blocks beyond the
// short lock bound.
func (c *Controller) Receive() (Frame, bool, error) {
	var f Frame
	hw := c.hwLock()
	if hw == nil {
		return f, false, ErrNotReady
	}
	if !hw.TryLockTimeout(c.rxLockTimeout) {
		return f, false, fmt.Errorf("receive: %w", ErrBusy)
	}
	defer hw.Unlock()

	b := c.bus
	cs := b.Read32(regs.MBCS(rxMailbox))
	if regs.Code(cs) == regs.CodeRxEmpty {
		return f, false, nil
	}

	f.ID = regs.StdID(b.Read32(regs.MBID(rxMailbox)))
	n := regs.DLC(cs)
	if n > MaxPayload {
		n = MaxPayload
	}
	f.Len = uint8(n)
	unpackWord(b.Read32(regs.MBData(rxMailbox, 0)), f.Data[:f.Len], 0)
	unpackWord(b.Read32(regs.MBData(rxMailbox, 1)), f.Data[:f.Len], 4)

	// Reading the free-running timer releases the hardware's internal
	// mailbox lock after a buffer read; skipping it wedges reception.
	_ = b.Read32(regs.TIMER)
	b.Write32(regs.IFLAG1, regs.IFlagMB(rxMailbox))
	// Restore the acceptance identifier the stored frame overwrote,
	// then re-arm.
	b.Write32(regs.MBID(rxMailbox), c.filterID<<regs.IDStdShift)
	b.Write32(regs.MBCS(rxMailbox), regs.CodeRxEmpty<<regs.CSCodeShift)
	return f, true, nil
}

// Available reports whether a received frame is waiting. It takes no
// lock and mutates nothing, so it may be called from a hot polling
// loop. The interrupt flag is authoritative under interrupt-driven
// operation and the mailbox code under pure polling; either signals a
// pending frame.
func (c *Controller) Available() bool {
	if c.state.Load() != stateReady {
		return false
	}
	b := c.bus
	if regs.Code(b.Read32(regs.MBCS(rxMailbox))) != regs.CodeRxEmpty {
		return true
	}
	return b.Read32(regs.IFLAG1)&regs.IFlagMB(rxMailbox) != 0
}

// SetFilter programs the acceptance identifier and mask applied to the
// receive mailbox. Both are 11-bit values; mask bits set to zero are
// "don't care" (MaskAcceptAll admits everything). The filter applies
// to subsequent receptions only: a frame already latched in the
// mailbox is unaffected.
func (c *Controller) SetFilter(id, mask uint32) error {
	if id > MaxStandardID {
		return fmt.Errorf("%w: 0x%X exceeds 11 bits", ErrInvalidID, id)
	}
	if mask > MaxStandardID {
		return fmt.Errorf("%w: 0x%X exceeds 11 bits", ErrInvalidMask, mask)
	}
	hw := c.hwLock()
	if hw == nil {
		return ErrNotReady
	}
	if !hw.TryLockTimeout(c.lockTimeout) {
		return fmt.Errorf("set filter: %w", ErrBusy)
	}
	defer hw.Unlock()

	c.filterID = id
	// A latched frame owns the ID word until Receive re-arms the
	// mailbox; writing it here would clobber the stored identifier.
	// Receive restores filterID on re-arm, so the new value takes
	// effect then.
	if regs.Code(c.bus.Read32(regs.MBCS(rxMailbox))) == regs.CodeRxEmpty {
		c.bus.Write32(regs.MBID(rxMailbox), id<<regs.IDStdShift)
	}
	c.bus.Write32(regs.RXMGMASK, mask<<regs.IDStdShift)
	return nil
}

// BitTiming returns the timing profile programmed by the last
// successful Begin. The zero value is returned before Begin.
func (c *Controller) BitTiming() BitTiming {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timing
}

// BitRate returns the bit rate requested by the last successful Begin.
func (c *Controller) BitRate() physic.Frequency {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bitrate
}

// packWord packs payload bytes [i, i+4) into a mailbox data word, MSB
// first, zero-padding past the end of data.
func packWord(data []byte, i int) uint32 {
	var w uint32
	for k := 0; k < 4; k++ {
		w <<= 8
		if i+k < len(data) {
			w |= uint32(data[i+k])
		}
	}
	return w
}

// unpackWord writes a mailbox data word into out[i:i+4], MSB first,
// stopping at the end of out.
func unpackWord(w uint32, out []byte, i int) {
	for k := 0; k < 4; k++ {
		if i+k < len(out) {
			out[i+k] = byte(w >> (8 * (3 - k)))
		}
	}
}
