package crsf

// LinkStatistics is the decoded payload of a link statistics frame.
// RSSI values are positive dBm attenuation (an RSSI of 70 means
// -70dBm), link quality is a percentage, SNR is in dB.
type LinkStatistics struct {
	UplinkRSSI1   uint8
	UplinkRSSI2   uint8
	UplinkLQ      uint8
	UplinkSNR     int8
	ActiveAntenna uint8
	RFMode        uint8
	UplinkTXPower uint8
	DownlinkRSSI  uint8
	DownlinkLQ    uint8
	DownlinkSNR   int8
}

// txPowerLevels maps the UplinkTXPower enum to milliwatts.
var txPowerLevels = [...]uint16{0, 10, 25, 100, 500, 1000, 2000, 250, 50}

// TXPowerMilliwatts converts the uplink TX power enum to milliwatts.
// Unknown enum values report 0.
func (s *LinkStatistics) TXPowerMilliwatts() uint16 {
	if int(s.UplinkTXPower) >= len(txPowerLevels) {
		return 0
	}
	return txPowerLevels[s.UplinkTXPower]
}

// RSSI reports the RSSI of the active antenna in dBm.
func (s *LinkStatistics) RSSI() int {
	if s.ActiveAntenna == 1 {
		return -int(s.UplinkRSSI2)
	}
	return -int(s.UplinkRSSI1)
}

func decodeLinkStatistics(payload []byte, out *LinkStatistics) {
	if len(payload) < LinkStatisticsPayloadSize {
		return
	}
	out.UplinkRSSI1 = payload[0]
	out.UplinkRSSI2 = payload[1]
	out.UplinkLQ = payload[2]
	out.UplinkSNR = int8(payload[3])
	out.ActiveAntenna = payload[4]
	out.RFMode = payload[5]
	out.UplinkTXPower = payload[6]
	out.DownlinkRSSI = payload[7]
	out.DownlinkLQ = payload[8]
	out.DownlinkSNR = int8(payload[9])
}
