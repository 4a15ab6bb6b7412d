package stp

import "fmt"

// ControlType identifies the kind of a decoded packet.
type ControlType int

// Control types.
const (
	Data4 ControlType = iota
	Data8
	Data16
	Data32
	Data64
	Null
	Master
	MError
	Channel
	Version
	Freq
	GError
	Flag
	Trigger
	Async
	NotSupported
)

var controlTypeNames = [...]string{
	Data4:        "D4",
	Data8:        "D8",
	Data16:       "D16",
	Data32:       "D32",
	Data64:       "D64",
	Null:         "NULL",
	Master:       "MASTER",
	MError:       "MERROR",
	Channel:      "CHANNEL",
	Version:      "VERSION",
	Freq:         "FREQ",
	GError:       "GERROR",
	Flag:         "FLAG",
	Trigger:      "TRIG",
	Async:        "ASYNC",
	NotSupported: "NOT_SUPPORTED",
}

// String implements fmt.Stringer.
func (t ControlType) String() string {
	if t >= 0 && int(t) < len(controlTypeNames) {
		return controlTypeNames[t]
	}
	return fmt.Sprintf("ControlType(%d)", int(t))
}

// IsData indicates the packet carries a trace data payload.
func (t ControlType) IsData() bool {
	return t >= Data4 && t <= Data64
}

// Bits returns the payload width of data packets, 0 for others.
func (t ControlType) Bits() int {
	switch t {
	case Data4:
		return 4
	case Data8:
		return 8
	case Data16:
		return 16
	case Data32:
		return 32
	case Data64:
		return 64
	}
	return 0
}

// Payload holds up to 8 bytes of packet data. The meaningful width
// depends on the ControlType of the packet.
type Payload uint64

// U8 returns the payload as 8-bit value.
func (p Payload) U8() uint8 { return uint8(p) }

// U16 returns the payload as 16-bit value.
func (p Payload) U16() uint16 { return uint16(p) }

// U32 returns the payload as 32-bit value.
func (p Payload) U32() uint32 { return uint32(p) }

// U64 returns the payload as 64-bit value.
func (p Payload) U64() uint64 { return uint64(p) }

// Packet is a decoded STP item. It's only valid during the handler call.
type Packet struct {
	Type ControlType
	Data Payload
	// Timestamp is the running timestamp, meaningful only if HasTimestamp.
	Timestamp    uint64
	HasTimestamp bool
	// Marked is set for DxM and DxMTS packets.
	Marked bool
}

// TS returns the timestamp if the packet carries one.
func (p *Packet) TS() (uint64, bool) {
	return p.Timestamp, p.HasTimestamp
}

// PacketHandler is called for each decoded packet.
type PacketHandler interface {
	HandlePacket(*Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(*Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(pkt *Packet) {
	f(pkt)
}

// PacketList collects decoded packets.
type PacketList []Packet

// HandlePacket implements PacketHandler.
func (l *PacketList) HandlePacket(pkt *Packet) {
	*l = append(*l, *pkt)
}

// Take returns collected packets and clears the list.
func (l *PacketList) Take() []Packet {
	pkts := *l
	*l = nil
	return pkts
}

// SyncState indicates the state of the decoder.
type SyncState int

const (
	// SyncStateSyncing means the decoder is scanning for ASYNC.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the decoder is synchronized and between packets.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a packet is partially received.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates the decoder is synchronized.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates it's in the middle of a packet or an ASYNC run.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// StateNotifier is called when the sync state changed.
type StateNotifier interface {
	StateChanged(SyncState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(state SyncState) {
	f(state)
}

// StateNotifiers broadcasts state changes.
type StateNotifiers []StateNotifier

// StateChanged implements StateNotifier.
func (n StateNotifiers) StateChanged(state SyncState) {
	for _, notifier := range n {
		notifier.StateChanged(state)
	}
}
