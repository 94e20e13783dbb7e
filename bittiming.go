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

	"periph.io/x/conn/v3/physic"

	"github.com/busworks/go-flexcan/internal/regs"
)

// Time-quanta bounds per CAN bit. The lower bound comes from the
// minimum segment lengths, the upper bound from the CTRL1 field widths.
const (
	minQuanta = 8
	maxQuanta = 25

	maxPrescaler = 256 // PRESDIV is 8 bits wide, divider = PRESDIV+1
)

// BitTiming is a derived prescaler/segment configuration. Segment
// fields hold time-quanta lengths (not the off-by-one register
// encodings): one bit time is 1 (sync) + PropSeg + PhaseSeg1 +
// PhaseSeg2 quanta.
type BitTiming struct {
	Prescaler int // clock divider, 1-based
	PropSeg   int // propagation segment, quanta
	PhaseSeg1 int // phase segment 1, quanta
	PhaseSeg2 int // phase segment 2, quanta
	JumpWidth int // resynchronization jump width, quanta
}

// Quanta returns the number of time quanta per bit.
func (t BitTiming) Quanta() int {
	return 1 + t.PropSeg + t.PhaseSeg1 + t.PhaseSeg2
}

// SamplePoint returns the sampling position as a permille of the bit
// time.
func (t BitTiming) SamplePoint() int {
	return (1 + t.PropSeg + t.PhaseSeg1) * 1000 / t.Quanta()
}

// CTRL1 encodes the profile into the FlexCAN CTRL1 register layout,
// with triple sampling (SMP) enabled. Clock-source, loopback and
// interrupt bits are left clear for the caller to merge in.
//
// The encoding yields 0x04DB0086 for 500 kbit/s from a 40 MHz
// oscillator.
func (t BitTiming) CTRL1() uint32 {
	return uint32(t.Prescaler-1)<<regs.CTRL1PresdivShift |
		uint32(t.JumpWidth-1)<<regs.CTRL1RJWShift |
		uint32(t.PhaseSeg1-1)<<regs.CTRL1PSeg1Shift |
		uint32(t.PhaseSeg2-1)<<regs.CTRL1PSeg2Shift |
		regs.CTRL1SMP |
		uint32(t.PropSeg-1)&regs.CTRL1PropSegMask
}

// ComputeBitTiming derives a timing profile for the requested bit rate
// from the reference clock. It prefers 16 quanta per bit (the classic
// 75% sample point) and otherwise
// takes the finest exact division in range. ErrBitTimingUnreachable is
// returned when no prescaler yields a whole number of quanta in
// [8,25].
func ComputeBitTiming(clock, bitrate physic.Frequency) (BitTiming, error) {
	if clock <= 0 || bitrate <= 0 || bitrate > clock {
		return BitTiming{}, fmt.Errorf("%w: clock %s, bit rate %s",
			ErrBitTimingUnreachable, clock, bitrate)
	}

	best := 0
	bestDiv := 0
	for div := 1; div <= maxPrescaler; div++ {
		step := int64(bitrate) * int64(div)
		if int64(clock)%step != 0 {
			continue
		}
		quanta := int(int64(clock) / step)
		if quanta < minQuanta || quanta > maxQuanta {
			continue
		}
		if quanta == 16 {
			best, bestDiv = quanta, div
			break
		}
		if quanta > best {
			best, bestDiv = quanta, div
		}
	}
	if best == 0 {
		return BitTiming{}, fmt.Errorf("%w: clock %s, bit rate %s",
			ErrBitTimingUnreachable, clock, bitrate)
	}
	return allocateSegments(best, bestDiv), nil
}

// allocateSegments splits a bit time into segments: a quarter of the
// bit after the sample point, an equal phase segment 1 before it, and
// the rest in the propagation segment, spilling into the phase
// segments where the 8-quanta field limits require.
func allocateSegments(quanta, div int) BitTiming {
	pseg2 := quanta / 4
	if pseg2 < 2 {
		pseg2 = 2
	}
	pseg1 := pseg2
	prop := quanta - 1 - pseg1 - pseg2
	if prop > 8 {
		pseg1 += prop - 8
		prop = 8
	}
	if pseg1 > 8 {
		pseg2 += pseg1 - 8
		pseg1 = 8
	}

	jw := pseg2
	if jw > 4 {
		jw = 4
	}

	return BitTiming{
		Prescaler: div,
		PropSeg:   prop,
		PhaseSeg1: pseg1,
		PhaseSeg2: pseg2,
		JumpWidth: jw,
	}
}
