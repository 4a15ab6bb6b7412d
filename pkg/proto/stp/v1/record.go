package v1

import (
	proto "github.com/golang/protobuf/proto"
)

// Record is a decoded STP packet with its source.
type Record struct {
	Source               string   `protobuf:"bytes,1,opt,name=source,proto3" json:"source,omitempty"`
	Session              string   `protobuf:"bytes,2,opt,name=session,proto3" json:"session,omitempty"`
	Master               uint32   `protobuf:"varint,3,opt,name=master,proto3" json:"master,omitempty"`
	Channel              uint32   `protobuf:"varint,4,opt,name=channel,proto3" json:"channel,omitempty"`
	Type                 string   `protobuf:"bytes,5,opt,name=type,proto3" json:"type,omitempty"`
	Data                 uint64   `protobuf:"varint,6,opt,name=data,proto3" json:"data,omitempty"`
	Timestamp            uint64   `protobuf:"varint,7,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	HasTimestamp         bool     `protobuf:"varint,8,opt,name=has_timestamp,json=hasTimestamp,proto3" json:"has_timestamp,omitempty"`
	Marked               bool     `protobuf:"varint,9,opt,name=marked,proto3" json:"marked,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Record) Reset()         { *m = Record{} }
func (m *Record) String() string { return proto.CompactTextString(m) }
func (*Record) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Record)(nil), "stp.v1.Record")
}
