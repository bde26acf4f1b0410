package crsf

// unpackChannels decodes the 11-bit little-endian packed channel values
// of an RC channels payload into out. A short payload leaves the
// remaining channels untouched.
func unpackChannels(payload []byte, out *[ChannelCount]uint16) {
	var acc uint32
	var bits uint
	idx := 0
	for ch := 0; ch < ChannelCount; ch++ {
		for bits < 11 {
			if idx >= len(payload) {
				return
			}
			acc |= uint32(payload[idx]) << bits
			idx++
			bits += 8
		}
		out[ch] = uint16(acc & 0x07FF)
		acc >>= 11
		bits -= 11
	}
}

// packChannels is the inverse of unpackChannels. It is used by the
// telemetry side of bidirectional links and by tests to synthesize
// frames.
func packChannels(channels *[ChannelCount]uint16, payload []byte) {
	var acc uint32
	var bits uint
	idx := 0
	for ch := 0; ch < ChannelCount; ch++ {
		acc |= uint32(channels[ch]&0x07FF) << bits
		bits += 11
		for bits >= 8 {
			if idx >= len(payload) {
				return
			}
			payload[idx] = byte(acc)
			acc >>= 8
			bits -= 8
			idx++
		}
	}
}

// PackRcFrame builds a complete RC channels frame for channels,
// including address, length, type and CRC. The returned slice is
// RcPayloadSize+4 bytes.
func PackRcFrame(channels *[ChannelCount]uint16) []byte {
	buf := make([]byte, RcPayloadSize+4)
	buf[0] = AddrFlightController
	buf[1] = RcPayloadSize + 2
	buf[2] = FrameTypeRcChannels
	packChannels(channels, buf[3:3+RcPayloadSize])
	buf[len(buf)-1] = CRC8(buf[2 : len(buf)-1])
	return buf
}
