package sdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robolab/roboscene/pkg/math"
)

// parseFloats splits whitespace-separated scalar text into exactly want
// float32 values.
func parseFloats(text string, want int) ([]float32, error) {
	fields := strings.Fields(text)
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d values, got %d in %q", want, len(fields), text)
	}
	out := make([]float32, want)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("value %d of %q: %v", i, text, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parsePoseText parses the world dialect's "x y z roll pitch yaw" pose
// element. Empty text is the identity pose.
func parsePoseText(text string) (math.Pose, error) {
	if strings.TrimSpace(text) == "" {
		return math.PoseIdentity(), nil
	}
	v, err := parseFloats(text, 6)
	if err != nil {
		return math.Pose{}, fmt.Errorf("%w: pose: %v", ErrMalformedDocument, err)
	}
	return math.PoseFromRPY(math.Vec3{X: v[0], Y: v[1], Z: v[2]}, v[3], v[4], v[5]), nil
}

// parsePoseAttrs parses the kinematic dialect's split xyz / rpy origin
// attributes. Either may be empty.
func parsePoseAttrs(xyz, rpy string) (math.Pose, error) {
	t := math.Vec3{}
	if strings.TrimSpace(xyz) != "" {
		v, err := parseFloats(xyz, 3)
		if err != nil {
			return math.Pose{}, fmt.Errorf("%w: origin xyz: %v", ErrMalformedDocument, err)
		}
		t = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	r := [3]float32{}
	if strings.TrimSpace(rpy) != "" {
		v, err := parseFloats(rpy, 3)
		if err != nil {
			return math.Pose{}, fmt.Errorf("%w: origin rpy: %v", ErrMalformedDocument, err)
		}
		r = [3]float32{v[0], v[1], v[2]}
	}
	return math.PoseFromRPY(t, r[0], r[1], r[2]), nil
}

// parseVec3Text parses "x y z". Empty text yields the fallback value.
func parseVec3Text(text string, fallback math.Vec3) (math.Vec3, error) {
	if strings.TrimSpace(text) == "" {
		return fallback, nil
	}
	v, err := parseFloats(text, 3)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseVec2Text parses "x y". Empty text yields the fallback value.
func parseVec2Text(text string, fallback math.Vec2) (math.Vec2, error) {
	if strings.TrimSpace(text) == "" {
		return fallback, nil
	}
	v, err := parseFloats(text, 2)
	if err != nil {
		return math.Vec2{}, err
	}
	return math.Vec2{X: v[0], Y: v[1]}, nil
}

// parseColorText parses "r g b a" or "r g b" (alpha defaults to 1).
func parseColorText(text string, fallback Color) (Color, error) {
	fields := strings.Fields(text)
	switch len(fields) {
	case 0:
		return fallback, nil
	case 3:
		v, err := parseFloats(text, 3)
		if err != nil {
			return Color{}, err
		}
		return Color{v[0], v[1], v[2], 1}, nil
	case 4:
		v, err := parseFloats(text, 4)
		if err != nil {
			return Color{}, err
		}
		return Color{v[0], v[1], v[2], v[3]}, nil
	default:
		return Color{}, fmt.Errorf("expected 3 or 4 color components, got %d in %q", len(fields), text)
	}
}

// parseScalarText parses a single scalar. Empty text yields fallback.
func parseScalarText(text string, fallback float32) (float32, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

// parseBoolText parses the world dialect's boolean elements ("true",
// "false", "1", "0"). Empty text yields fallback.
func parseBoolText(text string, fallback bool) bool {
	switch strings.TrimSpace(text) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return fallback
	}
}
