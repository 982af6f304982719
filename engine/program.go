package engine

import (
	"fmt"

	"github.com/Hundemeier/go-artnet-led/colorconv"
)

//ProgramID is the first byte of the DMX data (after the shift) and selects how the rest is used
type ProgramID uint8

const (
	//ProgramStraight writes RGB triples directly to the strip
	ProgramStraight ProgramID = iota
	//ProgramChain pushes one color in at the head of the strip
	ProgramChain
	//ProgramChainReversed pushes one color in at the tail of the strip
	ProgramChainReversed
	//ProgramRainbow runs an animated hsv rainbow
	ProgramRainbow
)

func (id ProgramID) String() string {
	switch id {
	case ProgramStraight:
		return "straight"
	case ProgramChain:
		return "chain"
	case ProgramChainReversed:
		return "chain-reversed"
	case ProgramRainbow:
		return "rainbow"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(id))
	}
}

//Program is the currently active rendering program. It is one of Straight, Chain,
//ChainReversed or *Rainbow.
type Program interface {
	ID() ProgramID
	isProgram()
}

//Straight is the program with id 0
type Straight struct{}

//Chain is the program with id 1
type Chain struct{}

//ChainReversed is the program with id 2
type ChainReversed struct{}

func (Straight) ID() ProgramID      { return ProgramStraight }
func (Chain) ID() ProgramID         { return ProgramChain }
func (ChainReversed) ID() ProgramID { return ProgramChainReversed }

func (Straight) isProgram()      {}
func (Chain) isProgram()         {}
func (ChainReversed) isProgram() {}

//writeStraight copies as many complete triples as fit. Pixels without data keep their color.
func writeStraight(pixels []colorconv.RGB, data []byte) int {
	n := min(len(data)/3, len(pixels))
	for i := 0; i < n; i++ {
		pixels[i] = colorconv.RGBFromBytes(data[i*3:])
	}
	return n
}

//pushHead moves every pixel one step towards the tail and puts c at index 0
func pushHead(pixels []colorconv.RGB, c colorconv.RGB) {
	if len(pixels) == 0 {
		return
	}
	copy(pixels[1:], pixels[:len(pixels)-1])
	pixels[0] = c
}

//pushTail moves every pixel one step towards the head and puts c at the last index
func pushTail(pixels []colorconv.RGB, c colorconv.RGB) {
	if len(pixels) == 0 {
		return
	}
	copy(pixels[:len(pixels)-1], pixels[1:])
	pixels[len(pixels)-1] = c
}
