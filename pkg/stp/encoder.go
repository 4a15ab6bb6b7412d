package stp

import (
	"io"
	"math/bits"
)

// Encoder builds STPv2 streams. It's mainly used to generate trace
// for testing and simulation.
type Encoder struct {
	buf  []byte
	half bool
}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Nibbles returns the number of nibbles written.
func (e *Encoder) Nibbles() int {
	n := len(e.buf) * 2
	if e.half {
		n--
	}
	return n
}

// Bytes returns encoded bytes. An odd nibble count is padded with
// a NULL opcode.
func (e *Encoder) Bytes() []byte {
	b := make([]byte, len(e.buf))
	copy(b, e.buf)
	return b
}

// WriteTo writes encoded bytes.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.buf)
	return int64(n), err
}

// Reset clears the encoded bytes.
func (e *Encoder) Reset() {
	e.buf, e.half = e.buf[:0], false
}

// Null writes a NULL packet.
func (e *Encoder) Null() *Encoder {
	return e.op(0x0, 1)
}

// NullTS writes a NULL_TS packet.
func (e *Encoder) NullTS(delta uint64) *Encoder {
	return e.op(0xf01, 3).timestamp(delta)
}

// Master8 writes an M8 packet.
func (e *Encoder) Master8(m uint8) *Encoder {
	return e.op(0x1, 1).value(uint64(m), 2)
}

// Master16 writes an M16 packet.
func (e *Encoder) Master16(m uint16) *Encoder {
	return e.op(0xf1, 2).value(uint64(m), 4)
}

// Channel8 writes a C8 packet.
func (e *Encoder) Channel8(c uint8) *Encoder {
	return e.op(0x3, 1).value(uint64(c), 2)
}

// Channel16 writes a C16 packet.
func (e *Encoder) Channel16(c uint16) *Encoder {
	return e.op(0xf3, 2).value(uint64(c), 4)
}

// MError writes an MERR packet.
func (e *Encoder) MError(v uint8) *Encoder {
	return e.op(0x2, 1).value(uint64(v), 2)
}

// GError writes a GERR packet.
func (e *Encoder) GError(v uint8) *Encoder {
	return e.op(0xf2, 2).value(uint64(v), 2)
}

// Data writes a plain data packet of type t.
func (e *Encoder) Data(t ControlType, v uint64) *Encoder {
	return e.data(t, v, false, 0, false)
}

// DataTS writes a timestamped data packet.
func (e *Encoder) DataTS(t ControlType, v, delta uint64) *Encoder {
	return e.data(t, v, true, delta, false)
}

// DataMarked writes a marked data packet.
func (e *Encoder) DataMarked(t ControlType, v uint64) *Encoder {
	return e.data(t, v, false, 0, true)
}

// DataMarkedTS writes a marked and timestamped data packet.
func (e *Encoder) DataMarkedTS(t ControlType, v, delta uint64) *Encoder {
	return e.data(t, v, true, delta, true)
}

// Flag writes a FLAG packet.
func (e *Encoder) Flag() *Encoder {
	return e.op(0xfe, 2)
}

// FlagTS writes a FLAG_TS packet.
func (e *Encoder) FlagTS(delta uint64) *Encoder {
	return e.op(0xe, 1).timestamp(delta)
}

// Version writes a VERSION packet.
func (e *Encoder) Version(v uint8) *Encoder {
	return e.op(0xf00, 3).value(uint64(v), 1)
}

// Trigger writes a TRIG packet.
func (e *Encoder) Trigger(v uint8) *Encoder {
	return e.op(0xf06, 3).value(uint64(v), 2)
}

// TriggerTS writes a TRIG_TS packet.
func (e *Encoder) TriggerTS(v uint8, delta uint64) *Encoder {
	return e.op(0xf07, 3).value(uint64(v), 2).timestamp(delta)
}

// Freq writes a FREQ packet.
func (e *Encoder) Freq(v uint32) *Encoder {
	return e.op(0xf08, 3).value(uint64(v), 8)
}

// FreqTS writes a FREQ_TS packet.
func (e *Encoder) FreqTS(v uint32, delta uint64) *Encoder {
	return e.op(0xf09, 3).value(uint64(v), 8).timestamp(delta)
}

// Async writes an ASYNC packet.
func (e *Encoder) Async() *Encoder {
	for i := 0; i < asyncFNibbles; i++ {
		e.nibble(0xf)
	}
	e.nibble(0)
	return e
}

// Raw writes raw nibbles.
func (e *Encoder) Raw(nibbles ...byte) *Encoder {
	for _, n := range nibbles {
		e.nibble(n)
	}
	return e
}

func (e *Encoder) data(t ControlType, v uint64, ts bool, delta uint64, marked bool) *Encoder {
	var code uint16
	var size int
	switch t {
	case Data4:
		switch {
		case ts && marked:
			code, size = 0xd, 1
		case ts:
			code, size = 0xfc, 2
		case marked:
			code, size = 0xfd, 2
		default:
			code, size = 0xc, 1
		}
	case Data8, Data16, Data32, Data64:
		i := uint16(t - Data8)
		switch {
		case ts && marked:
			code, size = 0x8+i, 1
		case ts:
			code, size = 0xf4+i, 2
		case marked:
			code, size = 0xf8+i, 2
		default:
			code, size = 0x4+i, 1
		}
	default:
		panic("not a data packet type: " + t.String())
	}
	e.op(code, size).value(v, t.Bits()/4)
	if ts {
		e.timestamp(delta)
	}
	return e
}

func (e *Encoder) op(code uint16, size int) *Encoder {
	return e.value(uint64(code), size)
}

// value writes the low n nibbles of v, most significant first.
func (e *Encoder) value(v uint64, n int) *Encoder {
	for i := n - 1; i >= 0; i-- {
		e.nibble(byte(v>>(uint(i)*4)) & 0xf)
	}
	return e
}

// timestamp writes the shortest timestamp group holding delta.
func (e *Encoder) timestamp(delta uint64) *Encoder {
	n := (bits.Len64(delta) + 3) / 4
	var l byte
	switch {
	case n <= 12:
		l = byte(n)
	case n <= 14:
		l, n = 0xd, 14
	default:
		l, n = 0xe, 16
	}
	e.nibble(l)
	return e.value(delta, n)
}

func (e *Encoder) nibble(n byte) {
	if e.half {
		e.buf[len(e.buf)-1] |= n << 4
	} else {
		e.buf = append(e.buf, n&0xf)
	}
	e.half = !e.half
}
