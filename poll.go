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
	"runtime"
	"time"
)

// waitFor polls cond until it holds or timeout elapses, reporting
// whether the condition was met. Every hardware status wait in the
// driver goes through here so that a stalled bus surfaces as a timeout
// error instead of a hung caller. cond is always sampled at least once,
// and once more at the deadline, so a zero timeout still observes the
// current state.
func waitFor(cond func() bool, timeout, interval time.Duration) bool {
	if cond() {
		return true
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if interval > 0 {
			time.Sleep(interval)
		} else {
			runtime.Gosched()
		}
		if cond() {
			return true
		}
	}
	return cond()
}
