package crsf

// CRSF frames are protected by CRC8 DVB-S2 (polynomial 0xD5) computed
// over the type byte and the payload.

const crc8Poly = 0xD5

var crc8Table [256]byte

func init() {
	for i := range crc8Table {
		c := byte(i)
		for bit := 0; bit < 8; bit++ {
			if c&0x80 != 0 {
				c = c<<1 ^ crc8Poly
			} else {
				c <<= 1
			}
		}
		crc8Table[i] = c
	}
}

// CRC8 computes the CRSF frame checksum of data.
func CRC8(data []byte) byte {
	var c byte
	for _, b := range data {
		c = crc8Table[c^b]
	}
	return c
}
