package modbus

import (
	"encoding/binary"
	"fmt"
)

// RTUFrame is a Modbus RTU request without the MBAP header:
// unit id, function code, start address, register count, payload and CRC.
type RTUFrame struct {
	UnitID        uint8  // 1 Byte - Slave Address
	FunctionCode  uint8  // 1 Byte - Modbus Function
	StartAddress  uint16 // 2 Bytes - Big Endian
	RegisterCount uint16 // 2 Bytes - Big Endian
	Payload       []byte // Variable Länge, optional
}

// Modbus Function Codes
const (
	FuncCodeReadCoils              = 0x01
	FuncCodeReadDiscreteInputs     = 0x02
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleCoil        = 0x05
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleCoils     = 0x0F
	FuncCodeWriteMultipleRegisters = 0x10
)

const (
	headerLength   = 6
	checksumLength = 2
)

// Encode serializes the frame and appends the CRC in little-endian order.
func (f *RTUFrame) Encode() ([]byte, error) {
	if f.RegisterCount == 0 {
		return nil, fmt.Errorf("%w: register count must be greater than zero", ErrInvalidArgument)
	}

	frame := make([]byte, headerLength, headerLength+len(f.Payload)+checksumLength)
	frame[0] = f.UnitID
	frame[1] = f.FunctionCode
	binary.BigEndian.PutUint16(frame[2:4], f.StartAddress)
	binary.BigEndian.PutUint16(frame[4:6], f.RegisterCount)
	frame = append(frame, f.Payload...)

	// CRC über alles davor
	return AppendChecksum(frame), nil
}

// BuildRequest assembles a request frame for any function code.
// The payload is appended verbatim and may be nil.
func BuildRequest(unitID, functionCode uint8, startAddr, count uint16, payload []byte) ([]byte, error) {
	f := &RTUFrame{
		UnitID:        unitID,
		FunctionCode:  functionCode,
		StartAddress:  startAddr,
		RegisterCount: count,
		Payload:       payload,
	}
	return f.Encode()
}

// ReadHoldingRegistersRequest erstellt Request für Function Code 0x03
func ReadHoldingRegistersRequest(unitID uint8, startAddr uint16, quantity uint16) ([]byte, error) {
	return BuildRequest(unitID, FuncCodeReadHoldingRegisters, startAddr, quantity, nil)
}

// StartAddress returns the start register encoded in a request frame,
// or 0 if the frame is too short to carry one.
func StartAddress(frame []byte) uint16 {
	if len(frame) < 4 {
		return 0
	}
	return binary.BigEndian.Uint16(frame[2:4])
}
