package model

// Location is a WGS84 point. AltitudeM is optional; nil means unknown.
type Location struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	AltitudeM *float64 `json:"altitude_m,omitempty"`
}

// Validate checks coordinate bounds.
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fieldError("location.lat", "latitude %v out of range [-90, 90]", l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fieldError("location.lon", "longitude %v out of range [-180, 180]", l.Lon)
	}
	return nil
}
