package stp

import "github.com/golang/glog"

// Config configures a Decoder.
type Config struct {
	// Handler receives decoded packets, may be nil.
	Handler PacketHandler
	// StartOutOfSync makes the decoder wait for an ASYNC packet first.
	StartOutOfSync bool
}

// Decoder decodes a MIPI STPv2 byte stream.
//
// Input may be split at any byte boundary across Decode calls. The decoder
// is not safe for concurrent use and must not be re-entered from its handler.
type Decoder struct {
	config Config

	state  decodeState
	op     *opcode
	remain int
	value  uint64
	delta  uint64
	fRun   int

	master  uint16
	channel uint16
	ts      uint64

	pkt Packet
}

type decodeState int

const (
	stateOutOfSync decodeState = iota // scanning for ASYNC
	stateOpcode                       // waiting for an opcode
	stateOpcodeF                      // got F
	stateOpcodeF0                     // got F0
	stateAsyncRun                     // got FF, counting F nibbles
	statePayload                      // waiting for payload nibbles
	stateTSLen                        // waiting for timestamp length
	stateTS                           // waiting for timestamp nibbles
)

// NewDecoder creates a Decoder.
func NewDecoder(config Config) *Decoder {
	d := &Decoder{config: config}
	d.Reset()
	return d
}

// Reset resets all decoding state as if the decoder was newly created.
func (d *Decoder) Reset() {
	d.clear()
	if d.config.StartOutOfSync {
		d.state = stateOutOfSync
	} else {
		d.state = stateOpcode
	}
}

// SetHandler replaces the packet handler.
func (d *Decoder) SetHandler(h PacketHandler) {
	d.config.Handler = h
}

// State gets the current sync state.
func (d *Decoder) State() SyncState {
	switch d.state {
	case stateOutOfSync:
		if d.fRun > 0 {
			return SyncStateSyncing | SyncStateReceiving
		}
		return SyncStateSyncing
	case stateOpcode:
		return SyncStateReady
	}
	return SyncStateReady | SyncStateReceiving
}

// Master returns the current master.
func (d *Decoder) Master() uint16 {
	return d.master
}

// Channel returns the current channel.
func (d *Decoder) Channel() uint16 {
	return d.channel
}

// Timestamp returns the running timestamp.
func (d *Decoder) Timestamp() uint64 {
	return d.ts
}

// Decode consumes bytes, low nibble first. The handler is invoked for
// every packet completed within p.
func (d *Decoder) Decode(p []byte) {
	for _, b := range p {
		d.nibble(b & 0xf)
		d.nibble(b >> 4)
	}
}

// SyncLoss discards the packet in progress and waits for the next ASYNC
// packet before decoding resumes.
func (d *Decoder) SyncLoss() {
	d.clear()
	d.state = stateOutOfSync
}

func (d *Decoder) clear() {
	d.op, d.remain, d.value, d.delta, d.fRun = nil, 0, 0, 0, 0
	d.master, d.channel, d.ts = 0, 0, 0
}

func (d *Decoder) nibble(n byte) {
	switch d.state {
	case stateOutOfSync:
		switch {
		case n == 0xf:
			d.fRun++
		case n == 0 && d.fRun >= asyncFNibbles:
			d.async()
		default:
			d.fRun = 0
		}
	case stateOpcode:
		d.dispatch(&ops1[n])
	case stateOpcodeF:
		d.dispatch(&ops2[n])
	case stateOpcodeF0:
		d.dispatch(&ops3[n])
	case stateAsyncRun:
		switch {
		case n == 0xf:
			d.fRun++
		case n == 0 && d.fRun >= asyncFNibbles:
			d.async()
		default:
			glog.V(2).Infof("stp: broken ASYNC after %d F nibbles", d.fRun)
			d.SyncLoss()
		}
	case statePayload:
		d.value = d.value<<4 | uint64(n)
		if d.remain--; d.remain == 0 {
			d.payloadDone()
		}
	case stateTSLen:
		l := tsLengths[n]
		if l < 0 {
			glog.V(2).Infof("stp: invalid timestamp length on opcode %#x", d.op.code)
			d.SyncLoss()
			return
		}
		if d.remain = l; l == 0 {
			d.finish()
		} else {
			d.state = stateTS
		}
	case stateTS:
		d.delta = d.delta<<4 | uint64(n)
		if d.remain--; d.remain == 0 {
			d.finish()
		}
	}
}

func (d *Decoder) dispatch(op *opcode) {
	switch op.kind {
	case opEscape:
		d.state = stateOpcodeF
	case opExtension:
		d.state = stateOpcodeF0
	case opAsync:
		d.state, d.fRun = stateAsyncRun, 2
	case opPacket:
		d.op, d.value, d.delta = op, 0, 0
		if op.nibbles > 0 {
			d.remain, d.state = op.nibbles, statePayload
		} else {
			d.payloadDone()
		}
	default:
		glog.V(2).Infof("stp: unsupported opcode %#x", op.code)
		d.SyncLoss()
		d.emit(Packet{Type: NotSupported, Data: Payload(op.code)})
	}
}

func (d *Decoder) payloadDone() {
	if d.op.ts {
		d.state = stateTSLen
		return
	}
	d.finish()
}

func (d *Decoder) finish() {
	op := d.op
	pkt := Packet{Type: op.ctrl, Data: Payload(d.value), Marked: op.marked}
	switch op.ctrl {
	case Master:
		d.master, d.channel = uint16(d.value), 0
	case Channel:
		if op.nibbles == 2 {
			d.channel = d.channel&0xff00 | uint16(d.value)
		} else {
			d.channel = uint16(d.value)
		}
		pkt.Data = Payload(d.channel)
	}
	if op.ts {
		d.ts += d.delta
		pkt.Timestamp, pkt.HasTimestamp = d.ts, true
	}
	d.op, d.state = nil, stateOpcode
	d.emit(pkt)
}

func (d *Decoder) async() {
	d.master, d.channel, d.fRun = 0, 0, 0
	d.state = stateOpcode
	d.emit(Packet{Type: Async})
}

func (d *Decoder) emit(pkt Packet) {
	if h := d.config.Handler; h != nil {
		d.pkt = pkt
		h.HandlePacket(&d.pkt)
	}
}
