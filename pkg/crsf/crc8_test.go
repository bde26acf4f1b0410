package crsf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// crc8Ref is the bitwise reference the table is generated from.
func crc8Ref(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crc8Poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func TestCRC8MatchesReference(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x00},
		{0x16},
		{0x16, 0x00, 0x00, 0x00},
		{0x14, 70, 80, 100, 5, 0, 2, 3, 60, 90, 4},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	ramp := make([]byte, 256)
	for i := range ramp {
		ramp[i] = byte(i)
	}
	cases = append(cases, ramp)

	for _, data := range cases {
		require.Equal(t, crc8Ref(data), CRC8(data), "data % x", data)
	}
}

func TestCRC8Empty(t *testing.T) {
	require.Equal(t, byte(0), CRC8(nil))
}
