package artnet

import (
	"encoding/binary"
	"errors"
	"net"
	"os"
	"strconv"
)

func getAsBytes16(i uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, i)
}

func getAsBytes16LE(i uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, i)
}

func getAsUint16(arr []byte) uint16 {
	return binary.BigEndian.Uint16(arr)
}

func getAsUint16LE(arr []byte) uint16 {
	return binary.LittleEndian.Uint16(arr)
}

//withDefaultPort appends the Art-Net port if the address has none
func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, strconv.Itoa(Port))
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
