/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

// haversineMeters returns the great-circle distance between two points.
func haversineMeters(a, b GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// ValidateGeoFence checks a location/species pair against the zone registry.
// Zones are tried in registry iteration order; the first zone containing the
// point and listing the species wins. The winning zone's restrictions ride
// along on the result for the record; its season list is not compared against
// the harvest date here.
func ValidateGeoFence(zones []Zone, point GeoPoint, species string) GeoFenceResult {
	for _, z := range zones {
		if haversineMeters(point, z.Center) > z.RadiusMeters {
			continue
		}
		if !containsSpecies(z.ApprovedSpecies, species) {
			continue
		}
		restrictions := z.Restrictions
		return GeoFenceResult{Approved: true, ZoneID: z.ID, Restrictions: &restrictions}
	}
	return GeoFenceResult{Reason: "no approved zone for species at location"}
}

func containsSpecies(approved []string, species string) bool {
	for _, s := range approved {
		if s == species {
			return true
		}
	}
	return false
}

// ValidateSeason reports whether species is inside its restricted window on
// the given "MM-DD" day. Windows whose start sorts after their end span the
// year boundary. Species without a configured window are never restricted.
func (c *ValidationConfig) ValidateSeason(species, monthDay string) (bool, string) {
	w, ok := c.SeasonWindows[species]
	if !ok {
		return false, ""
	}
	var restricted bool
	if w.Start <= w.End {
		restricted = monthDay >= w.Start && monthDay <= w.End
	} else {
		restricted = monthDay >= w.Start || monthDay <= w.End
	}
	if !restricted {
		return false, ""
	}
	return true, fmt.Sprintf("collection of %s is restricted between %s and %s", species, w.Start, w.End)
}

// EvaluateQualityGates checks measured values against the configured gates.
// Parameters without a gate are ignored. Pure function: callers decide
// whether to persist a test regardless of the outcome.
func (c *ValidationConfig) EvaluateQualityGates(results map[string]Measurement) GateReport {
	report := GateReport{OverallPassed: true, Parameters: map[string]GateResult{}}
	for param, m := range results {
		gate, ok := c.QualityGates[param]
		if !ok {
			continue
		}
		res := GateResult{Value: m.Value, Passed: true}
		if gate.Min != nil && m.Value < *gate.Min {
			res.Passed = false
			res.Reason = fmt.Sprintf("%s %g %s is below minimum %g", param, m.Value, gate.Unit, *gate.Min)
		}
		if gate.Max != nil && m.Value > *gate.Max {
			res.Passed = false
			res.Reason = fmt.Sprintf("%s %g %s exceeds maximum %g", param, m.Value, gate.Unit, *gate.Max)
		}
		if !res.Passed {
			report.OverallPassed = false
		}
		report.Parameters[param] = res
	}
	return report
}
