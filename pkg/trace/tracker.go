package trace

import (
	"github.com/golang/glog"

	"github.com/robotalks/stp.go/pkg/stp"
)

// Record is a decoded packet associated with its source.
type Record struct {
	Master  uint16
	Channel uint16
	stp.Packet
}

// RecordHandler receives records.
type RecordHandler interface {
	HandleRecord(*Record)
}

// RecordHandlerFunc is func form of RecordHandler.
type RecordHandlerFunc func(*Record)

// HandleRecord implements RecordHandler.
func (f RecordHandlerFunc) HandleRecord(r *Record) {
	f(r)
}

// RecordList collects records.
type RecordList []Record

// HandleRecord implements RecordHandler.
func (l *RecordList) HandleRecord(r *Record) {
	*l = append(*l, *r)
}

// Tracker associates packets with master and channel.
type Tracker struct {
	Handler RecordHandler

	rec Record
}

// NewTracker creates a Tracker.
func NewTracker(h RecordHandler) *Tracker {
	return &Tracker{Handler: h}
}

// Master returns the current master.
func (t *Tracker) Master() uint16 {
	return t.rec.Master
}

// Channel returns the current channel.
func (t *Tracker) Channel() uint16 {
	return t.rec.Channel
}

// Reset clears master and channel, used when the decoder lost sync.
func (t *Tracker) Reset() {
	t.rec.Master, t.rec.Channel = 0, 0
}

// HandlePacket implements stp.PacketHandler.
func (t *Tracker) HandlePacket(pkt *stp.Packet) {
	switch pkt.Type {
	case stp.Master:
		t.rec.Master, t.rec.Channel = pkt.Data.U16(), 0
	case stp.Channel:
		t.rec.Channel = pkt.Data.U16()
	case stp.Async:
		t.Reset()
	}
	if glog.V(2) {
		glog.Infof("stp: m%d c%d %s %#x", t.rec.Master, t.rec.Channel, pkt.Type, uint64(pkt.Data))
	}
	if t.Handler != nil {
		t.rec.Packet = *pkt
		t.Handler.HandleRecord(&t.rec)
	}
}

// StateChanged implements stp.StateNotifier.
func (t *Tracker) StateChanged(state stp.SyncState) {
	if !state.IsReady() {
		t.Reset()
	}
}

// Filter drops records before passing to Handler.
type Filter struct {
	Handler  RecordHandler
	SkipNull bool
	// DataOnly passes data packets only.
	DataOnly bool
}

// HandleRecord implements RecordHandler.
func (f *Filter) HandleRecord(r *Record) {
	switch {
	case f.SkipNull && r.Type == stp.Null:
		return
	case f.DataOnly && !r.Type.IsData():
		return
	}
	if f.Handler != nil {
		f.Handler.HandleRecord(r)
	}
}
