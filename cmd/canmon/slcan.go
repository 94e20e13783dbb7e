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

package main

import (
	"fmt"

	"go.bug.st/serial"

	flexcan "github.com/busworks/go-flexcan"
)

const slcanBaudRate = 115200

// slcanWriter mirrors frames to a serial port in LAWICEL SLCAN ASCII
// framing, readable by slcand and most CAN dump tools.
type slcanWriter struct {
	port serial.Port
}

func openSLCAN(path string) (*slcanWriter, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: slcanBaudRate})
	if err != nil {
		return nil, fmt.Errorf("open slcan port %s: %w", path, err)
	}
	return &slcanWriter{port: port}, nil
}

func (w *slcanWriter) WriteFrame(f flexcan.Frame) error {
	if _, err := w.port.Write([]byte(slcanFrame(f))); err != nil {
		return fmt.Errorf("write slcan frame: %w", err)
	}
	return nil
}

func (w *slcanWriter) Close() error {
	if err := w.port.Close(); err != nil {
		return fmt.Errorf("close slcan port: %w", err)
	}
	return nil
}

// slcanFrame encodes a standard data frame: 't', three identifier hex
// digits, one length digit, payload hex, carriage return.
func slcanFrame(f flexcan.Frame) string {
	return fmt.Sprintf("t%03X%d%X\r", f.ID, f.Len, f.Payload())
}
