// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scan

import (
	"math"
	"time"
)

// Fixed geometry of the simulated single-plane range sensor.
const (
	FrameID = "dummy_laser_link"

	NumRanges      = 100
	AngleMin       = -2.0
	AngleMax       = 2.0
	AngleIncrement = 0.04
	TimeIncrement  = 0.001
	ScanTime       = 0.05
	RangeMin       = 0.01
	RangeMax       = 100.0
)

// Stamp is a ROS-style split timestamp.
type Stamp struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// NewStamp converts t to a Stamp.
func NewStamp(t time.Time) Stamp {
	return Stamp{Secs: t.Unix(), Nsecs: int64(t.Nanosecond())}
}

// Time converts the stamp back to a time.Time.
func (s Stamp) Time() time.Time {
	return time.Unix(s.Secs, s.Nsecs)
}

// Header carries the acquisition time and the frame the data is expressed in.
type Header struct {
	Stamp   Stamp  `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Scan is one sweep of the planar range sensor.
type Scan struct {
	Header Header `json:"header"`

	AngleMin       float64 `json:"angle_min"`       // rad
	AngleMax       float64 `json:"angle_max"`       // rad
	AngleIncrement float64 `json:"angle_increment"` // rad
	TimeIncrement  float64 `json:"time_increment"`  // s
	ScanTime       float64 `json:"scan_time"`       // s
	RangeMin       float64 `json:"range_min"`       // m
	RangeMax       float64 `json:"range_max"`       // m

	Ranges []float64 `json:"ranges"` // m
}

// New returns a scan with the fixed sensor metadata and NumRanges zeroed ranges.
func New(stamp time.Time) *Scan {
	return &Scan{
		Header: Header{
			Stamp:   NewStamp(stamp),
			FrameID: FrameID,
		},
		AngleMin:       AngleMin,
		AngleMax:       AngleMax,
		AngleIncrement: AngleIncrement,
		TimeIncrement:  TimeIncrement,
		ScanTime:       ScanTime,
		RangeMin:       RangeMin,
		RangeMax:       RangeMax,
		Ranges:         make([]float64, NumRanges),
	}
}

// Angle returns the beam angle of sample i as published in the scan.
func (s *Scan) Angle(i int) float64 {
	return s.AngleMin + float64(i)*s.AngleIncrement
}

// Point is a range sample projected into the scan frame.
type Point struct {
	X, Y float64
}

// Points projects every range inside [RangeMin, RangeMax] into Cartesian
// coordinates. Out-of-range samples are dropped.
func (s *Scan) Points() []Point {
	pts := make([]Point, 0, len(s.Ranges))
	for i, r := range s.Ranges {
		if r < s.RangeMin || r > s.RangeMax {
			continue
		}
		a := s.Angle(i)
		pts = append(pts, Point{X: r * math.Cos(a), Y: r * math.Sin(a)})
	}
	return pts
}
