package topology

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/diskofflaner/diskofflaner/internal/util"
)

const (
	// listDiskScript is the diskpart script producing the status table for every disk.
	listDiskScript = "list disk\nexit\n"
	// physicalDiskQuery fetches health and friendly name for every physical disk.
	physicalDiskQuery = "Get-PhysicalDisk | Select-Object DeviceId,HealthStatus,FriendlyName | ConvertTo-Json"
)

// StatusMaps are the lookup tables produced by the batched status queries. They live for one enumeration only.
type StatusMaps struct {
	Online map[uint32]bool
	Health map[uint32]uint8
	Model  map[uint32]string
}

// IsOnline reports the disk's status, assuming online when the disk is missing from the table.
func (m StatusMaps) IsOnline(n uint32) bool {
	if online, ok := m.Online[n]; ok {
		return online
	}
	return true
}

// HealthOf returns the disk's health score or nil when unknown.
func (m StatusMaps) HealthOf(n uint32) *uint8 {
	if h, ok := m.Health[n]; ok {
		return healthPtr(h)
	}
	return nil
}

// collectStatus runs the diskpart status query and the physical disk health query concurrently. A failing source
// leaves its tables empty.
func collectStatus(ctx context.Context, runner util.Runner, log logrus.FieldLogger) StatusMaps {
	var maps StatusMaps

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := runner.Execute(gctx, diskpartCommand(), listDiskScript)
		if err == nil {
			maps.Online, err = ParseDiskList(out.Stdout)
		}
		if err != nil {
			log.WithError(err).Debug("Disk status unavailable, assuming online")
		}
		return nil
	})
	g.Go(func() error {
		out, err := runner.Execute(gctx, powershellCommand(physicalDiskQuery), "")
		if err == nil {
			maps.Health, maps.Model, err = ParsePhysicalDisks(out.Stdout)
		}
		if err != nil {
			log.WithError(err).Debug("Disk health unavailable")
		}
		return nil
	})
	_ = g.Wait()

	return maps
}

// ParseDiskList parses the table printed by diskpart's "list disk" into disk number -> online. The selected disk is
// prefixed with "*" and "No Media" or "Missing" disks count as offline.
func ParseDiskList(out string) (map[uint32]bool, error) {
	status := make(map[uint32]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if len(fields) < 3 || !strings.EqualFold(fields[0], "Disk") {
			continue
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			// header row ("Disk ###")
			continue
		}
		status[uint32(n)] = strings.EqualFold(fields[2], "Online")
	}

	if len(status) == 0 {
		return nil, fmt.Errorf("no disks in diskpart listing: %w", ErrParse)
	}
	return status, nil
}

type physicalDisk struct {
	DeviceID     psString `json:"DeviceId"`
	HealthStatus psString `json:"HealthStatus"`
	FriendlyName string   `json:"FriendlyName"`
}

// healthScores maps Get-PhysicalDisk's HealthStatus, by name or enum value, to a score. Other states are treated as
// unknown.
var healthScores = map[string]uint8{
	"healthy":   100,
	"warning":   70,
	"unhealthy": 20,
	"0":         100,
	"1":         70,
	"2":         20,
}

// ParsePhysicalDisks parses Get-PhysicalDisk JSON into disk number -> health and disk number -> model tables.
func ParsePhysicalDisks(out string) (map[uint32]uint8, map[uint32]string, error) {
	disks, err := decodePowerShellList[physicalDisk](out)
	if err != nil {
		return nil, nil, err
	}

	health := make(map[uint32]uint8)
	model := make(map[uint32]string)
	for _, d := range disks {
		n, err := strconv.ParseUint(string(d.DeviceID), 10, 32)
		if err != nil {
			continue
		}
		if score, ok := healthScores[strings.ToLower(string(d.HealthStatus))]; ok {
			health[uint32(n)] = score
		}
		if name := strings.TrimSpace(d.FriendlyName); name != "" {
			model[uint32(n)] = name
		}
	}

	return health, model, nil
}

// decodePowerShellList decodes ConvertTo-Json output, which is a bare object when the pipeline yields a single item
// and an array otherwise.
func decodePowerShellList[T any](out string) ([]T, error) {
	raw := bytes.TrimSpace([]byte(out))
	if len(raw) == 0 {
		return nil, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode powershell output: %v: %w", err, ErrParse)
		}
		return items, nil
	}

	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode powershell output: %v: %w", err, ErrParse)
	}
	return []T{item}, nil
}

// psString accepts values PowerShell may serialize as either strings or numbers, such as enum-backed properties.
type psString string

func (s *psString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = psString(strings.TrimSpace(strings.Trim(v, "\x00")))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = psString(n.String())
	return nil
}

func diskpartCommand() []string {
	return []string{"diskpart"}
}

func powershellCommand(script string) []string {
	return []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", script}
}
