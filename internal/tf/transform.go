// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tf

import (
	"encoding/json"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/scan_producer/internal/scan"
)

// Frames broadcast by the producer.
const (
	BaseFrame  = "dummy_base_link"
	LaserFrame = "dummy_laser_link"
)

// Identity is the unit quaternion (no rotation).
var Identity = quat.Number{Real: 1}

// Transform is a rigid-body pose.
type Transform struct {
	Translation r3.Vec
	Rotation    quat.Number
}

// Stamped relates a child frame to its parent at a point in time.
type Stamped struct {
	Header       scan.Header
	ChildFrameID string
	Transform    Transform
}

// NewLaserTransform returns the base→laser transform at height z.
func NewLaserTransform(stamp time.Time, z float64) Stamped {
	return Stamped{
		Header: scan.Header{
			Stamp:   scan.NewStamp(stamp),
			FrameID: BaseFrame,
		},
		ChildFrameID: LaserFrame,
		Transform: Transform{
			Translation: r3.Vec{Z: z},
			Rotation:    Identity,
		},
	}
}

// Apply maps a point from the child frame into the parent frame.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	v := quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}
	r := quat.Mul(quat.Mul(t.Rotation, v), quat.Conj(t.Rotation))
	return r3.Add(r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}, t.Translation)
}

// wire types follow the geometry_msgs/TransformStamped JSON layout.
type vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type wireTransform struct {
	Translation vector3    `json:"translation"`
	Rotation    quaternion `json:"rotation"`
}

type wireStamped struct {
	Header       scan.Header   `json:"header"`
	ChildFrameID string        `json:"child_frame_id"`
	Transform    wireTransform `json:"transform"`
}

func (s Stamped) MarshalJSON() ([]byte, error) {
	t, q := s.Transform.Translation, s.Transform.Rotation
	return json.Marshal(wireStamped{
		Header:       s.Header,
		ChildFrameID: s.ChildFrameID,
		Transform: wireTransform{
			Translation: vector3{X: t.X, Y: t.Y, Z: t.Z},
			Rotation:    quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real},
		},
	})
}

func (s *Stamped) UnmarshalJSON(data []byte) error {
	var w wireStamped
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tr, rot := w.Transform.Translation, w.Transform.Rotation
	*s = Stamped{
		Header:       w.Header,
		ChildFrameID: w.ChildFrameID,
		Transform: Transform{
			Translation: r3.Vec{X: tr.X, Y: tr.Y, Z: tr.Z},
			Rotation:    quat.Number{Real: rot.W, Imag: rot.X, Jmag: rot.Y, Kmag: rot.Z},
		},
	}
	return nil
}
