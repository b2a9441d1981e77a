package topology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

const diskpartListDisk = `
Microsoft DiskPart version 10.0.19041.964

Copyright (C) Microsoft Corporation.
On computer: DESKTOP

  Disk ###  Status         Size     Free     Dyn  Gpt
  --------  -------------  -------  -------  ---  ---
* Disk 0    Online          476 GB      0 B        *
  Disk 1    Offline         931 GB  1024 KB        *
  Disk 2    No Media           0 B      0 B

Leaving DiskPart...
`

func TestParseDiskList(t *testing.T) {
	got, err := ParseDiskList(diskpartListDisk)

	assert.NoError(t, err)
	assert.Equal(t, map[uint32]bool{0: true, 1: false, 2: false}, got)
}

func TestParseDiskList_NoDisks(t *testing.T) {
	_, err := ParseDiskList("Microsoft DiskPart version 10.0\n")

	assert.ErrorIs(t, err, ErrParse)
}

func TestParsePhysicalDisks(t *testing.T) {
	tests := []struct {
		name       string
		out        string
		wantHealth map[uint32]uint8
		wantModel  map[uint32]string
		wantErr    bool
	}{
		{
			name: "array",
			out: `[
				{"DeviceId": "0", "HealthStatus": "Healthy", "FriendlyName": "Samsung SSD 970"},
				{"DeviceId": "1", "HealthStatus": "Warning", "FriendlyName": " "},
				{"DeviceId": "2", "HealthStatus": "Unknown", "FriendlyName": "Mystery"}
			]`,
			wantHealth: map[uint32]uint8{0: 100, 1: 70},
			wantModel:  map[uint32]string{0: "Samsung SSD 970", 2: "Mystery"},
		},
		{
			name:       "single object with enum values",
			out:        `{"DeviceId": 3, "HealthStatus": 2, "FriendlyName": "USB Stick"}`,
			wantHealth: map[uint32]uint8{3: 20},
			wantModel:  map[uint32]string{3: "USB Stick"},
		},
		{
			name:       "empty output",
			out:        "",
			wantHealth: map[uint32]uint8{},
			wantModel:  map[uint32]string{},
		},
		{
			name:    "garbage",
			out:     "Get-PhysicalDisk : The term is not recognized",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health, model, err := ParsePhysicalDisks(tt.out)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantHealth, health)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}

func TestStatusMaps_Defaults(t *testing.T) {
	maps := StatusMaps{
		Online: map[uint32]bool{0: false},
		Health: map[uint32]uint8{1: 70},
	}

	assert.False(t, maps.IsOnline(0))
	assert.True(t, maps.IsOnline(5), "missing disks are assumed online")
	assert.Nil(t, maps.HealthOf(0), "missing health is unknown, not zero")
	assert.Equal(t, uint8(70), *maps.HealthOf(1))
}

func TestPsString_UnmarshalJSON(t *testing.T) {
	var row struct {
		A psString `json:"a"`
		B psString `json:"b"`
		C psString `json:"c"`
	}

	err := json.Unmarshal([]byte(`{"a": "E\u0000", "b": 17, "c": null}`), &row)

	assert.NoError(t, err)
	assert.Equal(t, psString("E"), row.A)
	assert.Equal(t, psString("17"), row.B)
	assert.Equal(t, psString(""), row.C)
}
