package redvox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStation_HealthSummaryReducesBatteryAndNetworkType(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{})
	table := st.TableFor(SensorStationHealth)
	rows := []struct {
		battery float64
		network uint8
	}{
		{battery: 80, network: 1},
		{battery: 60, network: 1},
		{battery: 100, network: 2},
	}
	for i, r := range rows {
		table.AppendRow(int64(i), int64(i), RowValues{
			Float64: map[string]float64{"battery_percent": r.battery},
			Enum:    map[string]uint8{"network_type": r.network},
		})
	}

	summary := st.HealthSummary()
	assert.Equal(t, 3, summary.NumSamples)
	assert.Equal(t, 60.0, summary.MinBatteryPercent)
	assert.Equal(t, 100.0, summary.MaxBatteryPercent)
	assert.InDelta(t, 80.0, summary.MeanBatteryPercent, 1e-9)
	assert.Equal(t, map[uint8]int{1: 2, 2: 1}, summary.NetworkTypeCounts)
}

func TestStation_HealthSummaryIgnoresNullSentinels(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{})
	table := st.TableFor(SensorStationHealth)
	table.AppendRow(0, 0, RowValues{
		Float64: map[string]float64{"battery_percent": 50},
		Enum:    map[string]uint8{"network_type": 1},
	})
	table.AppendRow(1, NullTimestampUs, table.NullRow())

	summary := st.HealthSummary()
	assert.Equal(t, 1, summary.NumSamples)
	assert.Equal(t, 50.0, summary.MinBatteryPercent)
	assert.Equal(t, map[uint8]int{1: 1}, summary.NetworkTypeCounts)
}

func TestStation_HealthSummaryZeroValueWithoutTable(t *testing.T) {
	st := NewStation(StationKey{StationID: "1000"}, StationMetadata{})
	summary := st.HealthSummary()
	assert.Equal(t, 0, summary.NumSamples)
	assert.Empty(t, summary.NetworkTypeCounts)
}
