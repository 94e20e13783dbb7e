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

import "errors"

// Error categories. Lock and hardware timeouts are retryable; argument
// and lifecycle errors are not.
var (
	// Lifecycle errors
	ErrNotReady = errors.New("controller not ready, call Begin first")

	// Contention errors - retryable
	ErrBusy = errors.New("controller busy, lock not acquired in time")

	// Argument errors - not retryable
	ErrInvalidID            = errors.New("invalid identifier")
	ErrInvalidLength        = errors.New("invalid payload length")
	ErrInvalidMask          = errors.New("invalid acceptance mask")
	ErrExtendedNotSupported = errors.New("extended identifiers not supported")
	ErrRemoteNotSupported   = errors.New("remote frames not supported")

	// Configuration errors - controller stays disabled, Begin may be retried
	ErrConfigTimeout        = errors.New("freeze handshake timeout")
	ErrBitTimingUnreachable = errors.New("bit rate unreachable from reference clock")

	// Hardware timeouts - retryable; every status-bit wait is bounded
	// so a dead bus cannot hang the caller
	ErrTxMailboxBusy = errors.New("transmit mailbox did not become inactive")
	ErrTxTimeout     = errors.New("transmission did not complete in time")
)

// IsRetryable reports whether the operation that produced err may be
// reattempted as-is. Lock contention and hardware timeouts clear on
// their own; argument and lifecycle errors will not.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrBusy),
		errors.Is(err, ErrTxMailboxBusy),
		errors.Is(err, ErrTxTimeout),
		errors.Is(err, ErrConfigTimeout):
		return true
	default:
		return false
	}
}
