package chaincode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineMeters(t *testing.T) {
	center := GeoPoint{Lat: 19.75, Lng: 75.71}

	assert.Zero(t, haversineMeters(center, center))

	// One degree of latitude is about 111.2 km.
	north := GeoPoint{Lat: 20.75, Lng: 75.71}
	assert.InDelta(t, 111195, haversineMeters(center, north), 200)
}

func TestValidateGeoFence(t *testing.T) {
	zones := testZones()

	t.Run("point at zone center is approved", func(t *testing.T) {
		res := ValidateGeoFence(zones, GeoPoint{Lat: 19.75, Lng: 75.71}, "Withania somnifera")
		require.True(t, res.Approved)
		assert.Equal(t, "ZONE-MH-01", res.ZoneID)
		require.NotNil(t, res.Restrictions)
		assert.Equal(t, []string{"winter"}, res.Restrictions.Seasons)
		assert.True(t, res.Restrictions.CertificationRequired)
	})

	t.Run("point 100km away is rejected", func(t *testing.T) {
		res := ValidateGeoFence(zones, GeoPoint{Lat: 20.65, Lng: 75.71}, "Withania somnifera")
		assert.False(t, res.Approved)
		assert.Equal(t, "no approved zone for species at location", res.Reason)
	})

	t.Run("species not on the zone's list is rejected", func(t *testing.T) {
		res := ValidateGeoFence(zones, GeoPoint{Lat: 19.75, Lng: 75.71}, "Bacopa monnieri")
		assert.False(t, res.Approved)
	})

	t.Run("second zone can match", func(t *testing.T) {
		res := ValidateGeoFence(zones, GeoPoint{Lat: 15.85, Lng: 74.5}, "Bacopa monnieri")
		require.True(t, res.Approved)
		assert.Equal(t, "ZONE-KA-02", res.ZoneID)
	})

	t.Run("no zones means no approval", func(t *testing.T) {
		res := ValidateGeoFence(nil, GeoPoint{Lat: 19.75, Lng: 75.71}, "Withania somnifera")
		assert.False(t, res.Approved)
		assert.Equal(t, "no approved zone for species at location", res.Reason)
	})
}

func TestValidateSeasonWraparound(t *testing.T) {
	cfg := testConfig() // Withania: 10-01 .. 04-30 across the year boundary

	for _, day := range []string{"11-15", "01-01", "04-30", "10-01"} {
		restricted, reason := cfg.ValidateSeason("Withania somnifera", day)
		assert.True(t, restricted, "day %s should be restricted", day)
		assert.Contains(t, reason, "restricted between 10-01 and 04-30")
	}

	restricted, reason := cfg.ValidateSeason("Withania somnifera", "06-01")
	assert.False(t, restricted)
	assert.Empty(t, reason)
}

func TestValidateSeasonPlainWindow(t *testing.T) {
	cfg := &ValidationConfig{
		SeasonWindows: map[string]SeasonWindow{
			"Ocimum tenuiflorum": {Start: "06-15", End: "08-31"},
		},
	}

	restricted, _ := cfg.ValidateSeason("Ocimum tenuiflorum", "07-10")
	assert.True(t, restricted)

	restricted, _ = cfg.ValidateSeason("Ocimum tenuiflorum", "09-01")
	assert.False(t, restricted)

	// Species without a configured window are never restricted.
	restricted, _ = cfg.ValidateSeason("Azadirachta indica", "07-10")
	assert.False(t, restricted)
}

func TestEvaluateQualityGates(t *testing.T) {
	cfg := testConfig()

	t.Run("all within bounds", func(t *testing.T) {
		report := cfg.EvaluateQualityGates(map[string]Measurement{
			"moisture":         {Value: 9.5},
			"dna_authenticity": {Value: 99},
		})
		assert.True(t, report.OverallPassed)
		assert.Len(t, report.Parameters, 2)
		assert.True(t, report.Parameters["moisture"].Passed)
	})

	t.Run("max bound violated", func(t *testing.T) {
		report := cfg.EvaluateQualityGates(map[string]Measurement{
			"moisture": {Value: 14.2},
		})
		assert.False(t, report.OverallPassed)
		res := report.Parameters["moisture"]
		assert.False(t, res.Passed)
		assert.Equal(t, "moisture 14.2 % exceeds maximum 12", res.Reason)
	})

	t.Run("min bound violated", func(t *testing.T) {
		report := cfg.EvaluateQualityGates(map[string]Measurement{
			"dna_authenticity": {Value: 80},
		})
		assert.False(t, report.OverallPassed)
		assert.Equal(t, "dna_authenticity 80 % is below minimum 95", report.Parameters["dna_authenticity"].Reason)
	})

	t.Run("ungated parameters are ignored", func(t *testing.T) {
		report := cfg.EvaluateQualityGates(map[string]Measurement{
			"ash_content": {Value: 3},
		})
		assert.True(t, report.OverallPassed)
		assert.Empty(t, report.Parameters)
	})

	t.Run("zero is a legitimate reading", func(t *testing.T) {
		report := cfg.EvaluateQualityGates(map[string]Measurement{
			"moisture": {Value: 0},
		})
		assert.True(t, report.OverallPassed)
		assert.True(t, report.Parameters["moisture"].Passed)
	})
}
