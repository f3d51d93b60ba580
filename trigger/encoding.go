package trigger

import "fmt"

// Lines is the number of digital output lines a code is spread over.
const Lines = 8

// Pattern holds one level per output line, least significant bit first. On a
// parallel port line i is data pin 2+i; on a DLP-IO8-G it is channel i+1.
type Pattern [Lines]bool

// Encode spreads c over the output lines.
func Encode(c Code) Pattern {
	var p Pattern
	for i := range p {
		p[i] = c>>uint(i)&1 == 1
	}
	return p
}

// Decode is the inverse of Encode.
func Decode(p Pattern) Code {
	var c Code
	for i, high := range p {
		if high {
			c |= 1 << uint(i)
		}
	}
	return c
}

// Bits renders c most significant bit first, e.g. 10 -> "00001010".
func Bits(c Code) string {
	return fmt.Sprintf("%08b", uint8(c))
}

func (p Pattern) String() string {
	return Bits(Decode(p))
}
