package artnet

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	//Port is the UDP port Art-Net uses
	Port = 6454
	//ProtocolVersion is the only protocol version that is accepted
	ProtocolVersion = 14
	//MaxPacketLength is the size of the receive buffer. Longer datagrams are cut off.
	MaxPacketLength = 600
	//MaxDataLength is the maximum number of DMX channels in one packet
	MaxDataLength = 512

	opCodeEnd    = 10 //end of tag and opcode, config payloads start here
	headerLength = 18 //end of the DMX header
)

//OpCode is the little endian operation code at offset 8
type OpCode uint16

const (
	//OpDmx carries DMX data (ArtDmx)
	OpDmx OpCode = 0x5000
	//OpWifiStationSettings replaces the list of WiFi stations of the node
	OpWifiStationSettings OpCode = 0xf823
	//OpWifiAPSettings replaces the access point settings of the node
	OpWifiAPSettings OpCode = 0xf824
	//OpDmxSettings sets universe and shift of the node
	OpDmxSettings OpCode = 0xf825
)

func (op OpCode) String() string {
	switch op {
	case OpDmx:
		return "DMX"
	case OpWifiStationSettings:
		return "WIFI_SETTINGS_STA"
	case OpWifiAPSettings:
		return "WIFI_SETTINGS_AP"
	case OpDmxSettings:
		return "DMX_SETTINGS"
	default:
		return fmt.Sprintf("%04x", uint16(op))
	}
}

var tag = []byte("Art-Net\x00")

var (
	//ErrNotArtNet is returned for datagrams that do not start with the Art-Net tag
	ErrNotArtNet = errors.New("not an Art-Net packet")
	//ErrTooShort is returned for DMX packets that can not hold the DMX header
	ErrTooShort = errors.New("Art-Net DMX packet has insufficient length to hold arguments")
	//ErrVersionMismatch is returned if the protocol version is not 14
	ErrVersionMismatch = errors.New("Art-Net DMX packet protocol version mismatch")
	//ErrTruncated is returned if the stated data length does not fit into the packet
	ErrTruncated = errors.New("Art-Net DMX packet is truncated")
)

//ParseOpCode checks the tag of the raw bytes and returns the opcode
func ParseOpCode(raw []byte) (OpCode, error) {
	if len(raw) < opCodeEnd || !bytes.Equal(raw[:len(tag)], tag) {
		return 0, ErrNotArtNet
	}
	return OpCode(getAsUint16LE(raw[8:10])), nil
}

//DataPacket is an ArtDmx packet. A packet created with NewDataPacketRaw shares the memory of
//the given bytes, so it is only valid as long as the receive buffer is not reused.
type DataPacket struct {
	data []byte
}

//NewDataPacket creates an ArtDmx packet for universe 0 without any DMX data
func NewDataPacket() DataPacket {
	p := DataPacket{make([]byte, headerLength, headerLength+MaxDataLength)}
	copy(p.data, tag)
	p.replace(8, getAsBytes16LE(uint16(OpDmx)))
	p.replace(10, getAsBytes16(ProtocolVersion))
	return p
}

//NewDataPacketRaw validates the raw bytes as ArtDmx packet. The universe is little endian,
//the length is big endian.
func NewDataPacketRaw(raw []byte) (DataPacket, error) {
	var p DataPacket
	op, err := ParseOpCode(raw)
	if err != nil {
		return p, err
	}
	if op != OpDmx {
		return p, fmt.Errorf("opcode %v is not %v", op, OpDmx)
	}
	if len(raw) < headerLength {
		return p, fmt.Errorf("%w: %d bytes", ErrTooShort, len(raw))
	}
	if raw[10] != 0 || raw[11] != ProtocolVersion {
		return p, fmt.Errorf("%w: got %02x%02x", ErrVersionMismatch, raw[10], raw[11])
	}
	length := int(getAsUint16(raw[16:18]))
	if length > len(raw)-headerLength {
		return p, fmt.Errorf("%w: packet length (%d) is insufficient to fit stated payload length %d",
			ErrTruncated, len(raw), length)
	}
	p.data = raw[:headerLength+length]
	return p, nil
}

//replace overwrites the bytes starting at startIndex with replacement
func (d *DataPacket) replace(startIndex int, replacement []byte) {
	copy(d.data[startIndex:startIndex+len(replacement)], replacement)
}

//ProtocolVersion returns the protocol version field
func (d *DataPacket) ProtocolVersion() uint16 {
	return getAsUint16(d.data[10:12])
}

//SetSequence sets the sequence number of the packet. 0 disables the sequence check on the
//receiving side.
func (d *DataPacket) SetSequence(sequ byte) {
	d.data[12] = sequ
}

//Sequence returns the sequence number of the packet
func (d *DataPacket) Sequence() byte {
	return d.data[12]
}

//SequenceIncr increments the sequence number and skips 0 on rollover
func (d *DataPacket) SequenceIncr() {
	d.data[12]++
	if d.data[12] == 0 {
		d.data[12] = 1
	}
}

//PhysicalPort returns the physical input port. Receivers ignore it.
func (d *DataPacket) PhysicalPort() byte {
	return d.data[13]
}

//SetUniverse sets the universe value of the packet
func (d *DataPacket) SetUniverse(universe uint16) {
	d.replace(14, getAsBytes16LE(universe))
}

//Universe returns the universe value of the packet
func (d *DataPacket) Universe() uint16 {
	return getAsUint16LE(d.data[14:16])
}

//Length returns the stated length of the DMX data
func (d *DataPacket) Length() uint16 {
	return getAsUint16(d.data[16:18])
}

//SetData sets the DMX data. Only the first 512 bytes are used and an odd length is padded
//with a 0, because Art-Net requires an even length.
func (d *DataPacket) SetData(data []byte) {
	if len(data) > MaxDataLength {
		data = data[:MaxDataLength]
	}
	d.data = append(d.data[:headerLength], data...)
	if len(data)%2 != 0 {
		d.data = append(d.data, 0)
	}
	d.replace(16, getAsBytes16(uint16(len(d.data)-headerLength)))
}

//Data returns the DMX data of the packet
func (d *DataPacket) Data() []byte {
	return d.data[headerLength:]
}

//Bytes returns the packet as it is sent over the network
func (d *DataPacket) Bytes() []byte {
	return d.data
}

//copy returns a copy that does not share memory with d
func (d *DataPacket) copy() DataPacket {
	return DataPacket{data: append([]byte(nil), d.data...)}
}

//NewConfigPacket builds a packet for one of the node settings opcodes
func NewConfigPacket(op OpCode, payload []byte) []byte {
	b := make([]byte, opCodeEnd, opCodeEnd+len(payload))
	copy(b, tag)
	copy(b[8:], getAsBytes16LE(uint16(op)))
	return append(b, payload...)
}
