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

// canmon is a diagnostic monitor for the FlexCAN driver. It brings the
// controller up, prints every received frame, and can transmit a test
// frame and mirror traffic to a serial port in SLCAN framing.
//
// With -bus sim it runs against the register simulator (pair it with
// -loopback so transmitted frames come back); with -bus mem it maps
// the physical register block through /dev/mem.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"periph.io/x/conn/v3/physic"

	flexcan "github.com/busworks/go-flexcan"
	"github.com/busworks/go-flexcan/bus/memmap"
	"github.com/busworks/go-flexcan/bus/simulated"
	"github.com/busworks/go-flexcan/pinmux/siul2"
)

var (
	flagBus      string
	flagBase     uint
	flagBitrate  int
	flagLoopback bool
	flagSend     string
	flagSLCAN    string
	flagDebug    bool
)

func init() {
	flag.StringVar(&flagBus, "bus", "sim", "Register backend: sim or mem")
	flag.UintVar(&flagBase, "base", uint(flexcan.BaseCAN1), "FlexCAN base address for -bus mem")
	flag.IntVar(&flagBitrate, "bitrate", 500000, "Bit rate in bit/s")
	flag.BoolVar(&flagLoopback, "loopback", false, "Enable controller loopback")
	flag.StringVar(&flagSend, "send", "", "Transmit a frame before monitoring, formatted id#hexdata (e.g. 123#DEADBEEF)")
	flag.StringVar(&flagSLCAN, "slcan", "", "Serial port to mirror received frames to, in SLCAN framing")
	flag.BoolVar(&flagDebug, "debug", false, "Enable driver debug logging")
}

func main() {
	flag.Parse()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(log); err != nil {
		log.Error("canmon failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	if flagDebug {
		flexcan.SetDebugEnabled(true)
	}

	bus, opts, cleanup, err := openBus(log)
	if err != nil {
		return err
	}
	defer cleanup()

	if flagLoopback {
		opts = append(opts, flexcan.WithLoopback())
	}

	can, err := flexcan.New(bus, opts...)
	if err != nil {
		return err
	}
	bitrate := physic.Frequency(flagBitrate) * physic.Hertz
	if err := can.Begin(bitrate); err != nil {
		return fmt.Errorf("begin at %s: %w", bitrate, err)
	}
	defer func() { _ = can.Close() }()

	t := can.BitTiming()
	log.Info("controller ready",
		"bitrate", bitrate,
		"quanta", t.Quanta(),
		"sample_point_permille", t.SamplePoint())

	var mirror *slcanWriter
	if flagSLCAN != "" {
		mirror, err = openSLCAN(flagSLCAN)
		if err != nil {
			return err
		}
		defer func() { _ = mirror.Close() }()
	}

	if flagSend != "" {
		f, err := parseFrame(flagSend)
		if err != nil {
			return err
		}
		if err := can.Transmit(f.ID, f.Payload()); err != nil {
			return fmt.Errorf("transmit %s: %w", f, err)
		}
		log.Info("sent", "frame", f.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return monitor(ctx, log, can, mirror)
}

func openBus(log *slog.Logger) (flexcan.Bus, []flexcan.Option, func(), error) {
	switch flagBus {
	case "sim":
		log.Info("using simulated register file")
		return simulated.New(), nil, func() {}, nil
	case "mem":
		canBus, err := memmap.Open(uint32(flagBase), flexcan.RegionSize)
		if err != nil {
			return nil, nil, nil, err
		}
		padBus, err := memmap.Open(siul2.Base, siul2.BlockSize)
		if err != nil {
			_ = canBus.Close()
			return nil, nil, nil, err
		}
		router, err := siul2.New(padBus)
		if err != nil {
			_ = padBus.Close()
			_ = canBus.Close()
			return nil, nil, nil, err
		}
		cleanup := func() {
			_ = padBus.Close()
			_ = canBus.Close()
		}
		log.Info("mapped register block", "base", fmt.Sprintf("0x%X", flagBase))
		return canBus, []flexcan.Option{flexcan.WithPinRouter(router)}, cleanup, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown bus backend %q", flagBus)
	}
}

func monitor(ctx context.Context, log *slog.Logger, can *flexcan.Controller, mirror *slcanWriter) error {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if err := drain(log, can, mirror); err != nil {
				return err
			}
		}
	}
}

// drain consumes every frame currently latched. ErrBusy just means a
// concurrent caller held the lock; the next tick retries.
func drain(log *slog.Logger, can *flexcan.Controller, mirror *slcanWriter) error {
	for can.Available() {
		f, ok, err := can.Receive()
		if errors.Is(err, flexcan.ErrBusy) {
			return nil
		}
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		log.Info("frame", "id", fmt.Sprintf("%03X", f.ID), "len", f.Len,
			"data", fmt.Sprintf("%X", f.Payload()))
		if mirror != nil {
			if err := mirror.WriteFrame(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseFrame parses the id#hexdata notation, e.g. "123#DEADBEEF".
func parseFrame(s string) (flexcan.Frame, error) {
	var f flexcan.Frame
	idPart, dataPart, found := strings.Cut(s, "#")
	if !found {
		return f, fmt.Errorf("frame %q: want id#hexdata", s)
	}
	id, err := strconv.ParseUint(idPart, 16, 32)
	if err != nil {
		return f, fmt.Errorf("frame %q: bad identifier: %w", s, err)
	}
	data, err := hex.DecodeString(dataPart)
	if err != nil {
		return f, fmt.Errorf("frame %q: bad payload: %w", s, err)
	}
	if len(data) > flexcan.MaxPayload {
		return f, fmt.Errorf("frame %q: %w: %d bytes", s, flexcan.ErrInvalidLength, len(data))
	}
	f.ID = uint32(id)
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("frame %q: %w", s, err)
	}
	return f, nil
}
