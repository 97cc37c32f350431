// Package position implements static-point survey-in: averaging a
// stream of WLS-SPP solutions into one mean position with its
// dispersion statistics, for seeding a station's approx_rec_pos.
package position

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bramburn/gnssproc/internal/gnss"
)

// Position represents a single averaged or instantaneous GNSS fix, kept
// in NMEA-style fields so it can be persisted alongside logs produced by
// devices that only speak NMEA.
type Position struct {
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Altitude    float64        `json:"altitude"`
	FixQuality  int            `json:"fix_quality"`
	Satellites  int            `json:"satellites"`
	HDOP        float64        `json:"hdop"`
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description"`
	Stats       *PositionStats `json:"stats,omitempty"`
}

// FromSolution converts one WLS-SPP solution into a Position sample, for
// feeding into a PositionAverager during survey-in.
func FromSolution(sol gnss.PositioningSolution) Position {
	return Position{
		Latitude:    sol.LatDeg,
		Longitude:   sol.LonDeg,
		Altitude:    sol.HeightM,
		FixQuality:  fixQualityFromStatus(sol.Status),
		Satellites:  sol.NSat,
		HDOP:        sol.HDOP,
		Timestamp:   sol.UTC,
		Description: GetFixQualityDescription(fixQualityFromStatus(sol.Status)),
	}
}

func fixQualityFromStatus(status gnss.SolutionStatus) int {
	switch status {
	case gnss.Fixed:
		return 1 // autonomous single-point fix, not carrier-resolved RTK
	case gnss.Uncertain:
		return 6 // estimated: iteration cap reached before convergence
	default:
		return 0
	}
}

// SaveToFile saves the position to a JSON file
func (p *Position) SaveToFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %v", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling to JSON: %v", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing to file: %v", err)
	}

	return nil
}

// SavePositionWithStats saves a position with stats to a JSON file
func SavePositionWithStats(pos *Position, stats *PositionStats, filePath string) error {
	pos.Stats = stats
	return pos.SaveToFile(filePath)
}

// LoadFromFile loads a position from a JSON file
func LoadFromFile(filePath string) (*Position, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %v", err)
	}

	var position Position
	if err := json.Unmarshal(data, &position); err != nil {
		return nil, fmt.Errorf("error unmarshaling JSON: %v", err)
	}

	return &position, nil
}

// GetFixQualityDescription returns a description of an NMEA-style fix
// quality code.
func GetFixQualityDescription(quality int) string {
	switch quality {
	case 0:
		return "Invalid"
	case 1:
		return "GPS Fix"
	case 2:
		return "DGPS Fix"
	case 3:
		return "PPS Fix"
	case 4:
		return "RTK Fix"
	case 5:
		return "Float RTK"
	case 6:
		return "Estimated"
	case 7:
		return "Manual Input"
	case 8:
		return "Simulation"
	default:
		return fmt.Sprintf("Unknown (%d)", quality)
	}
}
