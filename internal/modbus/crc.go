package modbus

// Checksum berechnet CRC16/MODBUS (reflected poly 0x8005, init 0xFFFF).
func Checksum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// AppendChecksum appends the CRC of data in wire order (low byte first).
func AppendChecksum(data []byte) []byte {
	crc := Checksum(data)
	return append(data, byte(crc), byte(crc>>8))
}

// VerifyChecksum reports whether the last two bytes of frame hold the
// little-endian CRC of everything before them.
func VerifyChecksum(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 2
	crc := Checksum(frame[:n])
	return frame[n] == byte(crc) && frame[n+1] == byte(crc>>8)
}
