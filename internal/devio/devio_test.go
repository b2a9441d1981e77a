package devio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putU32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
func putU64(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:], v) }

func TestDecodeGeometry(t *testing.T) {
	buf := make([]byte, 32)
	putU32(buf, 20, 512)
	putU64(buf, 24, 500107862016)

	got, err := DecodeGeometry(buf)

	require.NoError(t, err)
	assert.Equal(t, Geometry{DiskSize: 500107862016, BytesPerSector: 512}, got)

	_, err = DecodeGeometry(buf[:30])
	assert.ErrorIs(t, err, ErrShortBuffer, "should reject a truncated response")
}

func layoutBuffer(entries ...LayoutEntry) []byte {
	buf := make([]byte, layoutEntriesOffset+len(entries)*layoutEntrySize)
	putU32(buf, 0, 1)
	putU32(buf, 4, uint32(len(entries)))
	for i, e := range entries {
		base := layoutEntriesOffset + i*layoutEntrySize
		putU64(buf, base+8, e.Offset)
		putU64(buf, base+16, e.Length)
		putU32(buf, base+24, e.Number)
	}
	return buf
}

func TestDecodeDriveLayout(t *testing.T) {
	want := []LayoutEntry{
		{Number: 1, Offset: 1048576, Length: 104857600},
		{Number: 2, Offset: 105906176, Length: 16777216},
		{Number: 0, Offset: 0, Length: 0},
	}

	got, err := DecodeDriveLayout(layoutBuffer(want...))

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeDriveLayout_CountBeyondBuffer(t *testing.T) {
	buf := layoutBuffer(LayoutEntry{Number: 1, Offset: 1024, Length: 2048})
	putU32(buf, 4, 4)

	_, err := DecodeDriveLayout(buf)

	assert.ErrorIs(t, err, ErrShortBuffer, "should not read entries past the returned byte count")
}

func TestDecodeDriveLayout_Empty(t *testing.T) {
	got, err := DecodeDriveLayout(layoutBuffer())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeVolumeExtents(t *testing.T) {
	buf := make([]byte, extentsOffset+2*extentSize)
	putU32(buf, 0, 2)
	putU32(buf, 8, 1)
	putU64(buf, 16, 0x100000)
	putU64(buf, 24, 0x200000)
	putU32(buf, 32, 3)
	putU64(buf, 40, 0x300000)
	putU64(buf, 48, 0x400000)

	got, err := DecodeVolumeExtents(buf)

	require.NoError(t, err)
	assert.Equal(t, []Extent{
		{DiskNumber: 1, Offset: 0x100000, Length: 0x200000},
		{DiskNumber: 3, Offset: 0x300000, Length: 0x400000},
	}, got)

	_, err = DecodeVolumeExtents(buf[:40])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeStorageDescriptor(t *testing.T) {
	buf := make([]byte, 96)
	putU32(buf, 4, 96)
	buf[10] = 1
	putU32(buf, 12, 40)
	putU32(buf, 16, 50)
	putU32(buf, 20, 0)
	putU32(buf, 24, 70)
	putU32(buf, 28, 7)
	copy(buf[40:], "SanDisk\x00")
	copy(buf[50:], "Ultra Fit       \x00")
	copy(buf[70:], "  4C530001\x00")

	got, err := DecodeStorageDescriptor(buf)

	require.NoError(t, err)
	assert.Equal(t, StorageDescriptor{
		Vendor:    "SanDisk",
		Product:   "Ultra Fit",
		Serial:    "4C530001",
		BusType:   7,
		Removable: true,
	}, got)
}

func TestDecodeStorageDescriptor_OffsetOutOfRange(t *testing.T) {
	buf := make([]byte, 40)
	putU32(buf, 12, 400)
	putU32(buf, 28, 17)

	got, err := DecodeStorageDescriptor(buf)

	require.NoError(t, err)
	assert.Empty(t, got.Vendor, "out of range offsets should yield empty strings")
	assert.Equal(t, uint32(17), got.BusType)
}

func TestDecodeSeekPenalty(t *testing.T) {
	buf := make([]byte, 12)

	got, err := DecodeSeekPenalty(buf)
	require.NoError(t, err)
	assert.False(t, got)

	buf[8] = 1
	got, err = DecodeSeekPenalty(buf)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = DecodeSeekPenalty(buf[:8])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

type smartAttr struct {
	slot    int
	id      uint8
	current uint8
}

func predictionBuffer(flag uint32, attrs ...smartAttr) []byte {
	buf := make([]byte, vendorSpecificOffset+512)
	putU32(buf, 0, flag)
	for _, a := range attrs {
		base := vendorSpecificOffset + smartHeaderSize + a.slot*smartSlotSize
		buf[base] = a.id
		buf[base+3] = a.current
		buf[base+4] = a.current
	}
	return buf
}

func TestHealthFromPrediction(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want uint8
	}{
		{
			name: "failure predicted",
			buf:  predictionBuffer(1, smartAttr{slot: 0, id: 0xE7, current: 99}),
			want: FailurePredictedHealth,
		},
		{
			name: "no attributes",
			buf:  predictionBuffer(0),
			want: FullHealth,
		},
		{
			name: "only unrelated attributes",
			buf:  predictionBuffer(0, smartAttr{slot: 0, id: 0x09, current: 12}, smartAttr{slot: 1, id: 0xC2, current: 40}),
			want: FullHealth,
		},
		{
			name: "minimum of wear attributes",
			buf: predictionBuffer(0,
				smartAttr{slot: 0, id: 0x05, current: 100},
				smartAttr{slot: 3, id: 0xE9, current: 87},
				smartAttr{slot: 29, id: 0xE7, current: 91},
			),
			want: 87,
		},
		{
			name: "empty slot before attributes",
			buf:  predictionBuffer(0, smartAttr{slot: 0, id: 0, current: 5}, smartAttr{slot: 1, id: 0xCA, current: 64}),
			want: 64,
		},
		{
			name: "out of range values ignored",
			buf:  predictionBuffer(0, smartAttr{slot: 0, id: 0xAD, current: 0}, smartAttr{slot: 1, id: 0xB1, current: 200}),
			want: FullHealth,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HealthFromPrediction(tt.buf)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHealthFromPrediction_Deterministic(t *testing.T) {
	buf := predictionBuffer(0, smartAttr{slot: 2, id: 0xF1, current: 73}, smartAttr{slot: 4, id: 0x05, current: 98})

	first, err := HealthFromPrediction(buf)
	require.NoError(t, err)
	second, err := HealthFromPrediction(buf)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical responses should give identical scores")
}

func TestHealthFromPrediction_ShortBuffer(t *testing.T) {
	_, err := HealthFromPrediction([]byte{0, 0})

	assert.ErrorIs(t, err, ErrShortBuffer)
}
