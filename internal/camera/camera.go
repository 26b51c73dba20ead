// Package camera maps pinhole-camera intrinsic parameters to the
// symmetric projection the renderer consumes, and holds the runtime
// intrinsics state behind validated updates.
package camera

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"github.com/robolab/roboscene/pkg/math"
)

// ErrInvalidIntrinsics rejects parameter sets a pinhole model cannot
// represent. On rejection the previous valid intrinsics stay in effect.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsics")

// offCenterTolerance is the fraction of the half-image the principal
// point may drift from center before the symmetric projection is
// flagged as an approximation.
const offCenterTolerance = 0.05

// Intrinsics is a pinhole parameter set: focal lengths, principal
// point, and image dimensions in pixels.
type Intrinsics struct {
	Fx, Fy float32
	Cx, Cy float32
	Width  int
	Height int
}

// Default returns the intrinsics assumed before any calibration
// arrives: 500px focal length centered on a 640x480 image.
func Default() Intrinsics {
	return Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240, Width: 640, Height: 480}
}

// Validate checks that the parameter set describes a usable pinhole
// camera.
func (in Intrinsics) Validate() error {
	if in.Fx <= 0 || in.Fy <= 0 {
		return fmt.Errorf("%w: focal length fx=%v fy=%v", ErrInvalidIntrinsics, in.Fx, in.Fy)
	}
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidIntrinsics, in.Width, in.Height)
	}
	return nil
}

// VerticalFOV converts the intrinsics to the vertical field of view in
// radians: 2*atan(height / (2*fy)).
func (in Intrinsics) VerticalFOV() (float32, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return 2 * float32(gomath.Atan(float64(in.Height)/(2*float64(in.Fy)))), nil
}

// HorizontalFOV converts the intrinsics to the horizontal field of view
// in radians.
func (in Intrinsics) HorizontalFOV() (float32, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return 2 * float32(gomath.Atan(float64(in.Width)/(2*float64(in.Fx)))), nil
}

// AspectRatio returns width over height.
func (in Intrinsics) AspectRatio() float32 {
	if in.Height == 0 {
		return 1
	}
	return float32(in.Width) / float32(in.Height)
}

// OffCenter reports whether the principal point deviates from the image
// center by more than the tolerance, in which case the symmetric
// projection built by Projection is only an approximation and callers
// needing exact off-axis behavior must build their own frustum.
func (in Intrinsics) OffCenter() bool {
	dx := float64(in.Cx) - float64(in.Width)/2
	dy := float64(in.Cy) - float64(in.Height)/2
	return gomath.Abs(dx) > offCenterTolerance*float64(in.Width)/2 ||
		gomath.Abs(dy) > offCenterTolerance*float64(in.Height)/2
}

// Projection builds the symmetric perspective matrix for the given clip
// planes.
func (in Intrinsics) Projection(near, far float32) (math.Mat4, error) {
	fov, err := in.VerticalFOV()
	if err != nil {
		return math.Mat4{}, err
	}
	return math.Perspective(fov, in.AspectRatio(), near, far), nil
}

// CameraMatrix returns the 3x3 intrinsic matrix K in row-major order:
//
//	fx  0 cx
//	 0 fy cy
//	 0  0  1
func (in Intrinsics) CameraMatrix() [9]float32 {
	return [9]float32{
		in.Fx, 0, in.Cx,
		0, in.Fy, in.Cy,
		0, 0, 1,
	}
}

// State holds the live intrinsics under a single-writer/many-reader
// discipline. Updates are validated before they replace the snapshot;
// an invalid update leaves the previous value visible.
type State struct {
	mu sync.RWMutex
	in Intrinsics
}

// NewState returns a State seeded with the given intrinsics, falling
// back to Default when they do not validate.
func NewState(in Intrinsics) *State {
	if in.Validate() != nil {
		in = Default()
	}
	return &State{in: in}
}

// Get returns the current validated snapshot.
func (s *State) Get() Intrinsics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.in
}

// Update validates and installs a new parameter set. Last validated
// write wins.
func (s *State) Update(in Intrinsics) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.in = in
	s.mu.Unlock()
	return nil
}
