package model

import "github.com/kilianp07/zerowaste/core/geo"

// Location is a GPS position in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceTo returns the great-circle distance in kilometres to other.
func (l Location) DistanceTo(other Location) float64 {
	return geo.Distance(l.Lat, l.Lng, other.Lat, other.Lng)
}
