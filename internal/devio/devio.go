// Package devio decodes the fixed-layout structures returned by Windows storage control requests. The decoders are
// portable so they can be tested anywhere; issuing the requests is Windows-only.
package devio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDeviceUnavailable identifies failures to open a device handle. The device should be skipped.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrQueryUnsupported identifies control requests the device or driver rejected. Callers degrade to defaults.
	ErrQueryUnsupported = errors.New("query unsupported")
	// ErrShortBuffer identifies responses that end before a field the decoder needs.
	ErrShortBuffer = errors.New("short buffer")
)

// field describes one little-endian integer inside a returned structure.
type field struct {
	name   string
	offset int
	width  int
}

// read decodes f from buf at base, checking it lies inside the returned byte count.
func (f field) read(buf []byte, base int) (uint64, error) {
	start := base + f.offset
	end := start + f.width
	if start < 0 || end > len(buf) {
		return 0, fmt.Errorf("%s at %d+%d of %d bytes: %w", f.name, start, f.width, len(buf), ErrShortBuffer)
	}
	b := buf[start:end]
	switch f.width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	default:
		return 0, fmt.Errorf("%s: unsupported width %d", f.name, f.width)
	}
}

// readFields decodes every field in table relative to base and returns them keyed by name.
func readFields(buf []byte, base int, table []field) (map[string]uint64, error) {
	values := make(map[string]uint64, len(table))
	for _, f := range table {
		v, err := f.read(buf, base)
		if err != nil {
			return nil, err
		}
		values[f.name] = v
	}
	return values, nil
}

// DISK_GEOMETRY_EX
var geometryFields = []field{
	{name: "BytesPerSector", offset: 20, width: 4},
	{name: "DiskSize", offset: 24, width: 8},
}

// Geometry is the subset of DISK_GEOMETRY_EX the topology needs.
type Geometry struct {
	DiskSize       uint64
	BytesPerSector uint32
}

// DecodeGeometry decodes a DISK_GEOMETRY_EX response.
func DecodeGeometry(buf []byte) (Geometry, error) {
	v, err := readFields(buf, 0, geometryFields)
	if err != nil {
		return Geometry{}, fmt.Errorf("decode geometry: %w", err)
	}
	return Geometry{DiskSize: v["DiskSize"], BytesPerSector: uint32(v["BytesPerSector"])}, nil
}

// DRIVE_LAYOUT_INFORMATION_EX header and PARTITION_INFORMATION_EX entries.
const (
	layoutEntriesOffset = 48
	layoutEntrySize     = 144
)

var (
	layoutHeaderFields = []field{
		{name: "PartitionStyle", offset: 0, width: 4},
		{name: "PartitionCount", offset: 4, width: 4},
	}
	layoutEntryFields = []field{
		{name: "StartingOffset", offset: 8, width: 8},
		{name: "PartitionLength", offset: 16, width: 8},
		{name: "PartitionNumber", offset: 24, width: 4},
	}
)

// LayoutEntry is one partition table entry as reported by the drive layout request.
type LayoutEntry struct {
	Number uint32
	Offset uint64
	Length uint64
}

// DecodeDriveLayout decodes a DRIVE_LAYOUT_INFORMATION_EX response. Empty MBR slots are returned as-is with a zero
// length; filtering them is the caller's concern.
func DecodeDriveLayout(buf []byte) ([]LayoutEntry, error) {
	hdr, err := readFields(buf, 0, layoutHeaderFields)
	if err != nil {
		return nil, fmt.Errorf("decode drive layout: %w", err)
	}

	count := int(hdr["PartitionCount"])
	entries := make([]LayoutEntry, 0, count)
	for i := 0; i < count; i++ {
		v, err := readFields(buf, layoutEntriesOffset+i*layoutEntrySize, layoutEntryFields)
		if err != nil {
			return nil, fmt.Errorf("decode drive layout entry %d: %w", i, err)
		}
		entries = append(entries, LayoutEntry{
			Number: uint32(v["PartitionNumber"]),
			Offset: v["StartingOffset"],
			Length: v["PartitionLength"],
		})
	}

	return entries, nil
}

// VOLUME_DISK_EXTENTS
const (
	extentsOffset = 8
	extentSize    = 24
)

var (
	extentsHeaderFields = []field{
		{name: "NumberOfDiskExtents", offset: 0, width: 4},
	}
	extentFields = []field{
		{name: "DiskNumber", offset: 0, width: 4},
		{name: "StartingOffset", offset: 8, width: 8},
		{name: "ExtentLength", offset: 16, width: 8},
	}
)

// Extent maps part of a volume to a byte range on a physical disk.
type Extent struct {
	DiskNumber uint32
	Offset     uint64
	Length     uint64
}

// DecodeVolumeExtents decodes a VOLUME_DISK_EXTENTS response.
func DecodeVolumeExtents(buf []byte) ([]Extent, error) {
	hdr, err := readFields(buf, 0, extentsHeaderFields)
	if err != nil {
		return nil, fmt.Errorf("decode volume extents: %w", err)
	}

	count := int(hdr["NumberOfDiskExtents"])
	extents := make([]Extent, 0, count)
	for i := 0; i < count; i++ {
		v, err := readFields(buf, extentsOffset+i*extentSize, extentFields)
		if err != nil {
			return nil, fmt.Errorf("decode volume extent %d: %w", i, err)
		}
		extents = append(extents, Extent{
			DiskNumber: uint32(v["DiskNumber"]),
			Offset:     v["StartingOffset"],
			Length:     v["ExtentLength"],
		})
	}

	return extents, nil
}

// STORAGE_DEVICE_DESCRIPTOR
var storageDescriptorFields = []field{
	{name: "Size", offset: 4, width: 4},
	{name: "DeviceType", offset: 8, width: 1},
	{name: "RemovableMedia", offset: 10, width: 1},
	{name: "VendorIdOffset", offset: 12, width: 4},
	{name: "ProductIdOffset", offset: 16, width: 4},
	{name: "ProductRevisionOffset", offset: 20, width: 4},
	{name: "SerialNumberOffset", offset: 24, width: 4},
	{name: "BusType", offset: 28, width: 4},
}

// StorageDescriptor is the decoded STORAGE_DEVICE_DESCRIPTOR.
type StorageDescriptor struct {
	Vendor    string
	Product   string
	Revision  string
	Serial    string
	BusType   uint32
	Removable bool
}

// DecodeStorageDescriptor decodes a STORAGE_DEVICE_DESCRIPTOR response, including the NUL-terminated strings its
// offsets point at. A zero or out-of-range offset yields an empty string.
func DecodeStorageDescriptor(buf []byte) (StorageDescriptor, error) {
	v, err := readFields(buf, 0, storageDescriptorFields)
	if err != nil {
		return StorageDescriptor{}, fmt.Errorf("decode storage descriptor: %w", err)
	}

	return StorageDescriptor{
		Vendor:    cString(buf, v["VendorIdOffset"]),
		Product:   cString(buf, v["ProductIdOffset"]),
		Revision:  cString(buf, v["ProductRevisionOffset"]),
		Serial:    cString(buf, v["SerialNumberOffset"]),
		BusType:   uint32(v["BusType"]),
		Removable: v["RemovableMedia"] != 0,
	}, nil
}

// cString reads the NUL-terminated ASCII string at off, trimming the space padding drivers like to add.
func cString(buf []byte, off uint64) string {
	if off == 0 || off >= uint64(len(buf)) {
		return ""
	}
	b := buf[off:]
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return strings.TrimSpace(string(b))
}

// DEVICE_SEEK_PENALTY_DESCRIPTOR
var seekPenaltyFields = []field{
	{name: "IncursSeekPenalty", offset: 8, width: 1},
}

// DecodeSeekPenalty decodes a DEVICE_SEEK_PENALTY_DESCRIPTOR response. True means the device is rotational.
func DecodeSeekPenalty(buf []byte) (bool, error) {
	v, err := readFields(buf, 0, seekPenaltyFields)
	if err != nil {
		return false, fmt.Errorf("decode seek penalty: %w", err)
	}
	return v["IncursSeekPenalty"] != 0, nil
}

// STORAGE_PREDICT_FAILURE and the SMART attribute table in its vendor-specific block.
const (
	vendorSpecificOffset = 4
	smartHeaderSize      = 2
	smartSlots           = 30
	smartSlotSize        = 12

	// FailurePredictedHealth is reported when the drive predicts its own failure. It may still be operable.
	FailurePredictedHealth uint8 = 10
	// FullHealth is reported when SMART passes without any wear attribute present.
	FullHealth uint8 = 100
)

var (
	predictFailureFields = []field{
		{name: "PredictFailure", offset: 0, width: 4},
	}
	smartSlotFields = []field{
		{name: "Id", offset: 0, width: 1},
		{name: "Current", offset: 3, width: 1},
	}
)

// wearAttributes lists the SMART attribute ids whose normalized value tracks remaining life.
var wearAttributes = map[uint8]string{
	0x05: "reallocated sectors",
	0xAD: "erase count",
	0xB1: "wear range delta",
	0xCA: "percentage used",
	0xE7: "ssd life left",
	0xE9: "media wearout",
	0xF1: "total lbas written",
}

// HealthFromPrediction derives a 0-100 health score from a STORAGE_PREDICT_FAILURE response. The score is the
// lowest normalized value among the wear attributes present, FullHealth when none are present, or
// FailurePredictedHealth when the drive flags an imminent failure.
func HealthFromPrediction(buf []byte) (uint8, error) {
	v, err := readFields(buf, 0, predictFailureFields)
	if err != nil {
		return 0, fmt.Errorf("decode failure prediction: %w", err)
	}
	if v["PredictFailure"] != 0 {
		return FailurePredictedHealth, nil
	}

	var worst uint8
	found := false
	for i := 0; i < smartSlots; i++ {
		base := vendorSpecificOffset + smartHeaderSize + i*smartSlotSize
		if base+smartSlotSize > len(buf) {
			break
		}
		slot, err := readFields(buf, base, smartSlotFields)
		if err != nil {
			break
		}

		id, current := uint8(slot["Id"]), uint8(slot["Current"])
		if id == 0 {
			continue
		}
		if _, ok := wearAttributes[id]; !ok {
			continue
		}
		if current == 0 || current > 100 {
			continue
		}
		if !found || current < worst {
			worst = current
			found = true
		}
	}

	if !found {
		return FullHealth, nil
	}
	return worst, nil
}
