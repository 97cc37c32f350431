package position

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bramburn/gnssproc/internal/gnss"
)

func TestFromSolutionFixed(t *testing.T) {
	sol := gnss.PositioningSolution{
		UTC:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		LatDeg:  51.50733333333333,
		LonDeg:  1.2611666666666666,
		HeightM: 100.0,
		NSat:    10,
		HDOP:    0.8,
		Status:  gnss.Fixed,
	}

	pos := FromSolution(sol)

	if pos.Latitude != sol.LatDeg {
		t.Errorf("Expected latitude %f, got %f", sol.LatDeg, pos.Latitude)
	}
	if pos.Longitude != sol.LonDeg {
		t.Errorf("Expected longitude %f, got %f", sol.LonDeg, pos.Longitude)
	}
	if pos.Altitude != 100.0 {
		t.Errorf("Expected altitude 100.0, got %f", pos.Altitude)
	}
	if pos.FixQuality != 1 {
		t.Errorf("Expected fix quality 1, got %d", pos.FixQuality)
	}
	if pos.Satellites != 10 {
		t.Errorf("Expected 10 satellites, got %d", pos.Satellites)
	}
	if pos.HDOP != 0.8 {
		t.Errorf("Expected HDOP 0.8, got %f", pos.HDOP)
	}
	if pos.Description != "GPS Fix" {
		t.Errorf("Expected description 'GPS Fix', got '%s'", pos.Description)
	}
}

func TestFromSolutionNoFix(t *testing.T) {
	sol := gnss.PositioningSolution{Status: gnss.NoFix}
	pos := FromSolution(sol)
	if pos.FixQuality != 0 {
		t.Errorf("Expected fix quality 0 for NoFix, got %d", pos.FixQuality)
	}
}

func TestFromSolutionUncertain(t *testing.T) {
	sol := gnss.PositioningSolution{Status: gnss.Uncertain}
	pos := FromSolution(sol)
	if pos.FixQuality != 6 {
		t.Errorf("Expected fix quality 6 for Uncertain, got %d", pos.FixQuality)
	}
}

func TestSaveToFile(t *testing.T) {
	// Create a temporary directory
	tempDir, err := os.MkdirTemp("", "position_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create a position
	pos := &Position{
		Latitude:    51.5074,
		Longitude:   -0.1278,
		Altitude:    45.0,
		FixQuality:  4,
		Satellites:  10,
		HDOP:        0.8,
		Timestamp:   time.Now().UTC(),
		Description: "Test position",
	}

	// Save to file
	filePath := filepath.Join(tempDir, "position.json")
	err = pos.SaveToFile(filePath)
	if err != nil {
		t.Fatalf("Failed to save position: %v", err)
	}

	// Check that file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Error("Expected file to exist")
	}

	// Read file
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	// Parse JSON
	var loadedPos Position
	err = json.Unmarshal(data, &loadedPos)
	if err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	// Check position
	if loadedPos.Latitude != pos.Latitude {
		t.Errorf("Expected latitude %f, got %f", pos.Latitude, loadedPos.Latitude)
	}

	if loadedPos.Longitude != pos.Longitude {
		t.Errorf("Expected longitude %f, got %f", pos.Longitude, loadedPos.Longitude)
	}

	if loadedPos.Altitude != pos.Altitude {
		t.Errorf("Expected altitude %f, got %f", pos.Altitude, loadedPos.Altitude)
	}

	if loadedPos.FixQuality != pos.FixQuality {
		t.Errorf("Expected fix quality %d, got %d", pos.FixQuality, loadedPos.FixQuality)
	}

	if loadedPos.Satellites != pos.Satellites {
		t.Errorf("Expected satellites %d, got %d", pos.Satellites, loadedPos.Satellites)
	}

	if loadedPos.HDOP != pos.HDOP {
		t.Errorf("Expected HDOP %f, got %f", pos.HDOP, loadedPos.HDOP)
	}

	if loadedPos.Description != pos.Description {
		t.Errorf("Expected description '%s', got '%s'", pos.Description, loadedPos.Description)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create a temporary directory
	tempDir, err := os.MkdirTemp("", "position_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create a position
	pos := &Position{
		Latitude:    51.5074,
		Longitude:   -0.1278,
		Altitude:    45.0,
		FixQuality:  4,
		Satellites:  10,
		HDOP:        0.8,
		Timestamp:   time.Now().UTC(),
		Description: "Test position",
	}

	// Save to file
	filePath := filepath.Join(tempDir, "position.json")
	err = pos.SaveToFile(filePath)
	if err != nil {
		t.Fatalf("Failed to save position: %v", err)
	}

	// Load from file
	loadedPos, err := LoadFromFile(filePath)
	if err != nil {
		t.Fatalf("Failed to load position: %v", err)
	}

	// Check position
	if loadedPos.Latitude != pos.Latitude {
		t.Errorf("Expected latitude %f, got %f", pos.Latitude, loadedPos.Latitude)
	}

	if loadedPos.Longitude != pos.Longitude {
		t.Errorf("Expected longitude %f, got %f", pos.Longitude, loadedPos.Longitude)
	}

	if loadedPos.Altitude != pos.Altitude {
		t.Errorf("Expected altitude %f, got %f", pos.Altitude, loadedPos.Altitude)
	}

	if loadedPos.FixQuality != pos.FixQuality {
		t.Errorf("Expected fix quality %d, got %d", pos.FixQuality, loadedPos.FixQuality)
	}

	if loadedPos.Satellites != pos.Satellites {
		t.Errorf("Expected satellites %d, got %d", pos.Satellites, loadedPos.Satellites)
	}

	if loadedPos.HDOP != pos.HDOP {
		t.Errorf("Expected HDOP %f, got %f", pos.HDOP, loadedPos.HDOP)
	}

	if loadedPos.Description != pos.Description {
		t.Errorf("Expected description '%s', got '%s'", pos.Description, loadedPos.Description)
	}
}

func TestLoadFromFileError(t *testing.T) {
	// Test with non-existent file
	_, err := LoadFromFile("non_existent_file.json")
	if err == nil {
		t.Error("Expected error with non-existent file")
	}

	// Test with invalid JSON
	tempDir, err := os.MkdirTemp("", "position_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	filePath := filepath.Join(tempDir, "invalid.json")
	err = os.WriteFile(filePath, []byte("invalid json"), 0644)
	if err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err = LoadFromFile(filePath)
	if err == nil {
		t.Error("Expected error with invalid JSON")
	}
}

func TestSavePositionWithStats(t *testing.T) {
	// Create a temporary directory
	tempDir, err := os.MkdirTemp("", "position_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Create a position
	pos := &Position{
		Latitude:    51.5074,
		Longitude:   -0.1278,
		Altitude:    45.0,
		FixQuality:  4,
		Satellites:  10,
		HDOP:        0.8,
		Timestamp:   time.Now().UTC(),
		Description: "Test position",
	}

	// Create stats
	stats := &PositionStats{
		SampleCount:            3,
		Duration:               10.0,
		LatitudeStdDev:         0.0001,
		LongitudeStdDev:        0.0001,
		AltitudeStdDev:         0.1,
		StartTime:              time.Now().UTC().Add(-10 * time.Second),
		EndTime:                time.Now().UTC(),
		FixQualityDistribution: map[int]int{4: 2, 5: 1},
	}

	// Save position with stats
	filePath := filepath.Join(tempDir, "position_with_stats.json")
	err = SavePositionWithStats(pos, stats, filePath)
	if err != nil {
		t.Fatalf("Failed to save position with stats: %v", err)
	}

	// Check that file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Error("Expected file to exist")
	}

	// Read file
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	// Parse JSON
	var loadedPos Position
	err = json.Unmarshal(data, &loadedPos)
	if err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	// Check position
	if loadedPos.Latitude != pos.Latitude {
		t.Errorf("Expected latitude %f, got %f", pos.Latitude, loadedPos.Latitude)
	}

	// Check stats
	if loadedPos.Stats == nil {
		t.Fatal("Expected non-nil stats")
	}

	if loadedPos.Stats.SampleCount != stats.SampleCount {
		t.Errorf("Expected sample count %d, got %d", stats.SampleCount, loadedPos.Stats.SampleCount)
	}

	if loadedPos.Stats.Duration != stats.Duration {
		t.Errorf("Expected duration %f, got %f", stats.Duration, loadedPos.Stats.Duration)
	}

	if loadedPos.Stats.LatitudeStdDev != stats.LatitudeStdDev {
		t.Errorf("Expected latitude std dev %f, got %f", stats.LatitudeStdDev, loadedPos.Stats.LatitudeStdDev)
	}

	if loadedPos.Stats.LongitudeStdDev != stats.LongitudeStdDev {
		t.Errorf("Expected longitude std dev %f, got %f", stats.LongitudeStdDev, loadedPos.Stats.LongitudeStdDev)
	}

	if loadedPos.Stats.AltitudeStdDev != stats.AltitudeStdDev {
		t.Errorf("Expected altitude std dev %f, got %f", stats.AltitudeStdDev, loadedPos.Stats.AltitudeStdDev)
	}

	// Check fix quality distribution
	if loadedPos.Stats.FixQualityDistribution[4] != 2 {
		t.Errorf("Expected 2 samples with fix quality 4, got %d", loadedPos.Stats.FixQualityDistribution[4])
	}

	if loadedPos.Stats.FixQualityDistribution[5] != 1 {
		t.Errorf("Expected 1 sample with fix quality 5, got %d", loadedPos.Stats.FixQualityDistribution[5])
	}
}

func TestGetFixQualityDescription(t *testing.T) {
	tests := []struct {
		quality  int
		expected string
	}{
		{0, "Invalid"},
		{1, "GPS Fix"},
		{2, "DGPS Fix"},
		{3, "PPS Fix"},
		{4, "RTK Fix"},
		{5, "Float RTK"},
		{6, "Estimated"},
		{7, "Manual Input"},
		{8, "Simulation"},
		{9, "Unknown (9)"},
	}

	for _, test := range tests {
		result := GetFixQualityDescription(test.quality)
		if result != test.expected {
			t.Errorf("Expected description '%s' for quality %d, got '%s'", test.expected, test.quality, result)
		}
	}
}
