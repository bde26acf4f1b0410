package crsf

// Device addresses appearing in the destination byte of a frame.
const (
	AddrBroadcast        byte = 0x00
	AddrFlightController byte = 0xC8
	AddrRadioTransmitter byte = 0xEA
	AddrReceiver         byte = 0xEC
	AddrTransmitter      byte = 0xEE
)

// Frame types carried in the type byte.
const (
	FrameTypeGPS            byte = 0x02
	FrameTypeVario          byte = 0x07
	FrameTypeBattery        byte = 0x08
	FrameTypeBaroAltitude   byte = 0x09
	FrameTypeLinkStatistics byte = 0x14
	FrameTypeRcChannels     byte = 0x16
	FrameTypeAttitude       byte = 0x1E
	FrameTypeFlightMode     byte = 0x21
)

// Frame geometry. The length byte counts the type byte, the payload and
// the trailing CRC. The CRC covers the type byte and the payload.
const (
	// FrameLengthMin is the smallest valid length byte (type + CRC).
	FrameLengthMin = 2
	// FrameLengthMax is the largest valid length byte.
	FrameLengthMax = 62
	// FrameSizeMax is the largest complete frame on the wire.
	FrameSizeMax = FrameLengthMax + 2

	// RcPayloadSize is the payload size of an RC channels frame:
	// 16 channels x 11 bits.
	RcPayloadSize = 22
	// LinkStatisticsPayloadSize is the payload size of a link
	// statistics frame.
	LinkStatisticsPayloadSize = 10
)

// ChannelCount is the number of RC channels in every RC channels frame.
const ChannelCount = 16

// Protocol-native channel range and the pulse widths they map to.
const (
	ChannelMin    uint16 = 172  // 988us
	ChannelCenter uint16 = 992  // 1500us
	ChannelMax    uint16 = 1811 // 2012us
)

// BaudRate is the standard CRSF receiver baud rate.
const BaudRate = 420000
