// Package h264 contains the H.264 helpers needed to package an
// elementary stream.
package h264

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// NALUType is the type of a NALU.
type NALUType uint8

// NALU types.
const (
	NALUTypeNonIDR NALUType = 1
	NALUTypeIDR    NALUType = 5
	NALUTypeSEI    NALUType = 6
	NALUTypeSPS    NALUType = 7
	NALUTypePPS    NALUType = 8
)

// Type returns the type of a NALU without start code.
func Type(nalu []byte) NALUType {
	if len(nalu) == 0 {
		return 0
	}
	return NALUType(nalu[0] & 0x1f)
}

// StartCode is the 4 byte Annex-B prefix.
var StartCode = []byte{0x00, 0x00, 0x00, 0x01}

// ErrNoStartCode is returned for a unit without a 4 byte start code.
var ErrNoStartCode = errors.New("missing start code")

// TrimStartCode returns the NALU following the start code.
func TrimStartCode(unit []byte) ([]byte, error) {
	if !bytes.HasPrefix(unit, StartCode) {
		return nil, ErrNoStartCode
	}
	return unit[len(StartCode):], nil
}

// AVCCSize returns the size of the length prefixed form of units
// that each carry a start code.
func AVCCSize(units [][]byte) int {
	n := 0
	for _, u := range units {
		n += len(u)
	}
	return n
}

// AppendAVCC replaces the start code of every unit with its
// big-endian length.
func AppendAVCC(dst []byte, units ...[]byte) ([]byte, error) {
	for _, u := range units {
		nalu, err := TrimStartCode(u)
		if err != nil {
			return nil, err
		}
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(nalu)))
		dst = append(dst, nalu...)
	}
	return dst, nil
}

// RemoveEmulationPrevention removes the 0x03 bytes inserted after two
// zero bytes.
func RemoveEmulationPrevention(buf []byte) []byte {
	if !bytes.Contains(buf, []byte{0, 0, 3}) {
		return buf
	}
	out := make([]byte, 0, len(buf))
	zeros := 0
	for _, b := range buf {
		if zeros >= 2 && b == 3 {
			zeros = 0
			continue
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}
