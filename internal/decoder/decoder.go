// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package decoder turns raw accelerometer log lines into imu.Sample values.
//
// A record line holds a decimal timestamp followed by six hex bytes:
//
//	<time> <X_L> <X_H> <Y_L> <Y_H> <Z_L> <Z_H>
//
// Every byte is an 8-bit two's complement value.
package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/accel_decoder/internal/imu"
)

// ByteWidth is the bit width of every axis field in a record.
const ByteWidth = 8

const recordTokens = 1 + 6

// DecodeTwosComplement interprets the low widthBits bits of raw as a two's
// complement signed integer. Bits above widthBits are discarded.
// widthBits must be in [1, 64].
func DecodeTwosComplement(raw uint64, widthBits uint) int64 {
	if widthBits == 0 || widthBits > 64 {
		panic(fmt.Sprintf("decoder: invalid bit width %d", widthBits))
	}
	if widthBits == 64 {
		return int64(raw)
	}
	raw &= 1<<widthBits - 1
	if raw&(1<<(widthBits-1)) != 0 {
		return int64(raw) - int64(1)<<widthBits
	}
	return int64(raw)
}

// ParseRecord decodes one record line. The returned error is always a
// *MalformedRecordError with Line left at 0.
func ParseRecord(line string) (imu.Sample, error) {
	tokens := strings.Fields(line)
	if len(tokens) != recordTokens {
		return imu.Sample{}, &MalformedRecordError{
			Text:   line,
			Reason: fmt.Sprintf("expected %d fields, got %d", recordTokens, len(tokens)),
		}
	}

	t, err := strconv.ParseUint(tokens[0], 10, 64)
	if err != nil {
		return imu.Sample{}, &MalformedRecordError{
			Text:   line,
			Reason: fmt.Sprintf("invalid timestamp %q", tokens[0]),
			Err:    err,
		}
	}

	var axes [6]int8
	for i, tok := range tokens[1:] {
		b, err := parseByte(tok)
		if err != nil {
			return imu.Sample{}, &MalformedRecordError{
				Text:   line,
				Reason: fmt.Sprintf("invalid %s byte %q", imu.Column(i+1), tok),
				Err:    err,
			}
		}
		axes[i] = int8(DecodeTwosComplement(uint64(b), ByteWidth))
	}

	return imu.Sample{
		Time: t,
		XL:   axes[0],
		XH:   axes[1],
		YL:   axes[2],
		YH:   axes[3],
		ZL:   axes[4],
		ZH:   axes[5],
	}, nil
}

// parseByte accepts exactly two hex digits, the form the capture tools write.
func parseByte(tok string) (byte, error) {
	if len(tok) != 2 {
		return 0, fmt.Errorf("want 2 hex digits, got %d characters", len(tok))
	}
	v, err := strconv.ParseUint(tok, 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
