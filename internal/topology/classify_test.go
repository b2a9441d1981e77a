package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    DiskType
	}{
		{name: "usb removable", signals: Signals{Bus: BusUSB, Removable: true}, want: USBFlash},
		{name: "usb fixed", signals: Signals{Bus: BusUSB}, want: ExternalHDD},
		{name: "nvme", signals: Signals{Bus: BusNVMe}, want: NVMe},
		{name: "nvme removable", signals: Signals{Bus: BusNVMe, Removable: true}, want: NVMe},
		{name: "nvme rotational ignored", signals: Signals{Bus: BusNVMe, Rotational: boolPtr(true)}, want: NVMe},
		{name: "sata rotational", signals: Signals{Bus: BusSATA, Rotational: boolPtr(true)}, want: HDD},
		{name: "sata solid state", signals: Signals{Bus: BusSATA, Rotational: boolPtr(false)}, want: SSD},
		{name: "model nvme", signals: Signals{Model: "Samsung SSD 980 PRO NVMe"}, want: NVMe},
		{name: "model ssd", signals: Signals{Model: "Crucial MX500 SSD"}, want: SSD},
		{name: "no signals", signals: Signals{Model: "WDC WD10EZEX"}, want: HDD},
		{name: "unavailable", signals: Signals{Bus: BusUSB, Unavailable: true}, want: Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.signals))
		})
	}
}

func TestParseBusType(t *testing.T) {
	tests := []struct {
		in   string
		want BusType
	}{
		{in: "", want: BusUnknown},
		{in: "NVMe", want: BusNVMe},
		{in: "usb", want: BusUSB},
		{in: " SATA ", want: BusSATA},
		{in: "PCI-Express", want: BusNVMe},
		{in: "Apple Fabric", want: BusNVMe},
		{in: "Disk Image", want: BusVirtual},
		{in: "7", want: BusUSB},
		{in: "17", want: BusNVMe},
		{in: "99", want: BusUnknown},
		{in: "carrier pigeon", want: BusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBusType(tt.in))
		})
	}
}

func TestBusType_String(t *testing.T) {
	assert.Equal(t, "NVMe", BusNVMe.String())
	assert.Equal(t, "Unknown", BusType(200).String())
}
