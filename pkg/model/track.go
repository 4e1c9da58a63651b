package model

// LinePoint is one control point of the idealized racing line: the lateral
// offset (meters from track center) at a given lap distance fraction.
type LinePoint struct {
	Fraction float64 `yaml:"fraction" json:"fraction"`
	Offset   float64 `yaml:"offset"   json:"offset"`
}

// TrackProfile carries the static track metadata. Loaded from a yaml file;
// everything is optional except Length.
type TrackProfile struct {
	Name   string  `yaml:"name"   json:"name"`
	Length float64 `yaml:"length" json:"length"` // meters
	Turns  int     `yaml:"turns"  json:"turns"`
	// clockwise or counterclockwise
	Direction string `yaml:"direction" json:"direction"`
	Surface   string `yaml:"surface"   json:"surface"`
	// sector boundaries as lap distance fractions, ascending, exclusive of 0/1
	Sectors []float64 `yaml:"sectors" json:"sectors"`
	// idealized racing line control points, ascending by fraction
	IdealLine []LinePoint `yaml:"idealLine" json:"idealLine,omitempty"`
	// free-form notes about notable corners
	Notes map[string]string `yaml:"notes" json:"notes,omitempty"`
}
