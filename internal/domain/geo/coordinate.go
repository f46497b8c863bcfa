package geo

import (
	"errors"
	"time"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Point is a bare lat/lng pair, as carried by trip step calls.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks coordinate ranges.
func (point Point) Validate() error {
	return validate(point.Lat, point.Lng)
}

// Sample is a single position fix produced by a position source and consumed once per telemetry tick.
type Sample struct {
	Latitude   float64
	Longitude  float64
	CapturedAt time.Time
}

// NewSample constructs a validated Sample captured "now" when capturedAt is zero.
func NewSample(latitude, longitude float64, capturedAt time.Time) (Sample, error) {
	if err := validate(latitude, longitude); err != nil {
		return Sample{}, err
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	return Sample{Latitude: latitude, Longitude: longitude, CapturedAt: capturedAt.UTC()}, nil
}

// Validate checks coordinate ranges.
func (sample Sample) Validate() error {
	return validate(sample.Latitude, sample.Longitude)
}

// Point drops the capture time.
func (sample Sample) Point() Point {
	return Point{Lat: sample.Latitude, Lng: sample.Longitude}
}

func validate(latitude, longitude float64) error {
	// NaN fails both comparisons, so test the accepted range instead of the rejected one.
	if !(latitude >= -90 && latitude <= 90) {
		return ErrInvalidLatitude
	}
	if !(longitude >= -180 && longitude <= 180) {
		return ErrInvalidLongitude
	}
	return nil
}
