package stp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderBytes(t *testing.T) {
	testCases := []struct {
		name   string
		enc    *Encoder
		expect []byte
	}{
		{
			name: "master and channel",
			enc: NewEncoder().Null().Master8(0xab).Channel8(0xab).Channel16(0x6446).
				Channel8(0xbb).Master8(0x0b).Channel8(0xaa),
			expect: []byte{0x10, 0xba, 0xa3, 0xfb, 0x63, 0x44, 0x36, 0xbb, 0x01, 0x3b, 0xaa},
		},
		{
			name:   "data with timestamp padded",
			enc:    NewEncoder().DataTS(Data8, 0xab, 0x11223344556677),
			expect: []byte{0x4f, 0xba, 0x1d, 0x21, 0x32, 0x43, 0x54, 0x65, 0x76, 0x07},
		},
		{
			name:   "zero timestamp",
			enc:    NewEncoder().FlagTS(0),
			expect: []byte{0x0e},
		},
		{
			name:   "full timestamp",
			enc:    NewEncoder().NullTS(0x8000000000000001),
			expect: []byte{0x0f, 0xe1, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10},
		},
		{
			name: "async",
			enc:  NewEncoder().Async(),
			expect: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
				0x0f},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.enc.Bytes())
			var w bytes.Buffer
			n, err := tc.enc.WriteTo(&w)
			require.NoError(t, err)
			require.EqualValues(t, len(tc.expect), n)
			require.Equal(t, tc.expect, w.Bytes())
		})
	}
}

func TestEncoderNibbles(t *testing.T) {
	enc := NewEncoder()
	require.Equal(t, 0, enc.Nibbles())
	enc.Null()
	require.Equal(t, 1, enc.Nibbles())
	enc.Data(Data64, 0)
	require.Equal(t, 18, enc.Nibbles())
	enc.Reset()
	require.Equal(t, 0, enc.Nibbles())
	require.Empty(t, enc.Bytes())
}

func TestEncoderRejectsNonData(t *testing.T) {
	require.Panics(t, func() {
		NewEncoder().Data(Master, 1)
	})
}
