package models

import "github.com/auracast/auracast/internal/aqi"

// SnapshotRequest is a full set of concentrations. Every code must be present
// and non-negative; pointers tell a missing field apart from zero.
type SnapshotRequest struct {
	PM25 *float64 `json:"pm25" validate:"required,gte=0"`
	PM10 *float64 `json:"pm10" validate:"required,gte=0"`
	O3   *float64 `json:"o3" validate:"required,gte=0"`
	NO2  *float64 `json:"no2" validate:"required,gte=0"`
	SO2  *float64 `json:"so2" validate:"required,gte=0"`
	CO   *float64 `json:"co" validate:"required,gte=0"`
}

// Snapshot converts a validated request. Missing fields read as 0.
func (r SnapshotRequest) Snapshot() aqi.Snapshot {
	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	return aqi.Snapshot{
		PM25: deref(r.PM25),
		PM10: deref(r.PM10),
		O3:   deref(r.O3),
		NO2:  deref(r.NO2),
		SO2:  deref(r.SO2),
		CO:   deref(r.CO),
	}
}

// Classification is the tier for a single AQI value.
type Classification struct {
	AQI float64 `json:"aqi"`
	aqi.Level
}

// FluctuateResponse is the result of one simulated tick on a posted snapshot.
type FluctuateResponse struct {
	Pollutants aqi.Snapshot `json:"pollutants"`
	Current    aqi.Status   `json:"current"`
}
