package stp

type opKind int

const (
	opReserved  opKind = iota // unsupported, length unknown
	opPacket                  // a complete opcode, payload follows
	opEscape                  // F: 2-nibble opcode follows
	opExtension               // F0: 3-nibble opcode follows
	opAsync                   // FF: start of ASYNC run
)

type opcode struct {
	kind    opKind
	code    uint16 // nibbles of the opcode as written, e.g. 0xf3 for C16
	ctrl    ControlType
	nibbles int  // payload nibbles
	ts      bool // followed by a timestamp group
	marked  bool
}

// asyncFNibbles is the minimum run of F nibbles before the terminating 0
// of an ASYNC packet.
const asyncFNibbles = 21

// tsLengths maps the timestamp length nibble to the number of timestamp
// value nibbles. -1 marks the invalid length 0xF.
var tsLengths = [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 14, 16, -1}

var (
	ops1 [16]opcode // 1-nibble opcodes
	ops2 [16]opcode // F-prefixed opcodes
	ops3 [16]opcode // F0-prefixed opcodes
)

func pkt(code uint16, ctrl ControlType, nibbles int, ts, marked bool) opcode {
	return opcode{kind: opPacket, code: code, ctrl: ctrl, nibbles: nibbles, ts: ts, marked: marked}
}

func init() {
	for i := range ops1 {
		ops1[i] = opcode{code: uint16(i)}
		ops2[i] = opcode{code: 0xf0 | uint16(i)}
		ops3[i] = opcode{code: 0xf00 | uint16(i)}
	}

	dataTypes := [...]ControlType{Data8, Data16, Data32, Data64}
	for i, t := range dataTypes {
		n := t.Bits() / 4
		ops1[0x4+i] = pkt(uint16(0x4+i), t, n, false, false)
		ops1[0x8+i] = pkt(uint16(0x8+i), t, n, true, true)
		ops2[0x4+i] = pkt(uint16(0xf4+i), t, n, true, false)
		ops2[0x8+i] = pkt(uint16(0xf8+i), t, n, false, true)
	}

	ops1[0x0] = pkt(0x0, Null, 0, false, false)
	ops1[0x1] = pkt(0x1, Master, 2, false, false)
	ops1[0x2] = pkt(0x2, MError, 2, false, false)
	ops1[0x3] = pkt(0x3, Channel, 2, false, false)
	ops1[0xc] = pkt(0xc, Data4, 1, false, false)
	ops1[0xd] = pkt(0xd, Data4, 1, true, true)
	ops1[0xe] = pkt(0xe, Flag, 0, true, false)
	ops1[0xf] = opcode{kind: opEscape, code: 0xf}

	ops2[0x0] = opcode{kind: opExtension, code: 0xf0}
	ops2[0x1] = pkt(0xf1, Master, 4, false, false)
	ops2[0x2] = pkt(0xf2, GError, 2, false, false)
	ops2[0x3] = pkt(0xf3, Channel, 4, false, false)
	ops2[0xc] = pkt(0xfc, Data4, 1, true, false)
	ops2[0xd] = pkt(0xfd, Data4, 1, false, true)
	ops2[0xe] = pkt(0xfe, Flag, 0, false, false)
	ops2[0xf] = opcode{kind: opAsync, code: 0xff}

	ops3[0x0] = pkt(0xf00, Version, 1, false, false)
	ops3[0x1] = pkt(0xf01, Null, 0, true, false)
	ops3[0x6] = pkt(0xf06, Trigger, 2, false, false)
	ops3[0x7] = pkt(0xf07, Trigger, 2, true, false)
	ops3[0x8] = pkt(0xf08, Freq, 8, false, false)
	ops3[0x9] = pkt(0xf09, Freq, 8, true, false)
}
