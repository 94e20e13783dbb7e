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
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Option configures a Controller at construction time.
type Option func(*Controller) error

// Defaults. Lock acquisition is bounded so a wedged holder surfaces as
// ErrBusy; the hardware timeouts bound the status-bit polls that would
// otherwise spin forever on a dead bus.
const (
	DefaultClock          = 40 * physic.MegaHertz
	DefaultLockTimeout    = 100 * time.Millisecond
	DefaultRxLockTimeout  = 10 * time.Millisecond
	DefaultConfigTimeout  = 100 * time.Millisecond
	DefaultMailboxTimeout = 100 * time.Millisecond
	defaultPollInterval   = 50 * time.Microsecond
)

// WithClock sets the reference clock feeding the CAN protocol engine.
// The default is the 40 MHz oscillator of the reference board.
func WithClock(clock physic.Frequency) Option {
	return func(c *Controller) error {
		if clock <= 0 {
			return fmt.Errorf("%w: clock %s", ErrBitTimingUnreachable, clock)
		}
		c.clock = clock
		return nil
	}
}

// WithLoopback enables the controller's internal loopback, connecting
// the transmit path to the receive path without touching the bus. Used
// for self-test and by the round-trip tests.
func WithLoopback() Option {
	return func(c *Controller) error {
		c.loopback = true
		return nil
	}
}

// WithPinRouter sets the pad router invoked during Begin. The default
// NopRouter routes nothing, which suits simulated buses; real targets
// pass a pinmux/siul2 Router.
func WithPinRouter(r PinRouter) Option {
	return func(c *Controller) error {
		if r == nil {
			return fmt.Errorf("pin router must not be nil")
		}
		c.router = r
		return nil
	}
}

// WithPins overrides the pad pair handed to the PinRouter. Defaults to
// PA14/PA15, the CAN_1 routing of the DEVKIT-MPC5744P.
func WithPins(txPad, rxPad uint8) Option {
	return func(c *Controller) error {
		c.txPad, c.rxPad = txPad, rxPad
		return nil
	}
}

// WithLockTimeout bounds lock acquisition for Transmit and SetFilter.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Controller) error {
		c.lockTimeout = d
		return nil
	}
}

// WithReceiveLockTimeout bounds lock acquisition for Receive. It is
// deliberately short: the receive fast path must approximate
// non-blocking.
func WithReceiveLockTimeout(d time.Duration) Option {
	return func(c *Controller) error {
		c.rxLockTimeout = d
		return nil
	}
}

// WithConfigTimeout bounds each freeze/halt handshake during Begin.
func WithConfigTimeout(d time.Duration) Option {
	return func(c *Controller) error {
		c.configTimeout = d
		return nil
	}
}

// WithMailboxTimeout bounds the transmit mailbox waits: the wait for
// the mailbox to go inactive before arming, and the wait for the
// transmission to complete after arming.
func WithMailboxTimeout(d time.Duration) Option {
	return func(c *Controller) error {
		c.mailboxTimeout = d
		return nil
	}
}
