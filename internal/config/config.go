// Package config handles scene-compiler configuration loading and
// management.
package config

// Config holds all compiler settings.
type Config struct {
	Assets  AssetsConfig  `yaml:"assets"`
	Compile CompileConfig `yaml:"compile"`
	Camera  CameraConfig  `yaml:"camera"`
	Logging LoggingConfig `yaml:"logging"`
}

// AssetsConfig holds mesh and document search paths.
type AssetsConfig struct {
	// SearchRoot anchors bare and relative mesh references.
	SearchRoot string `yaml:"search_root"`
	// SchemeRoots maps URI schemes (model, package) to directories.
	SchemeRoots map[string]string `yaml:"scheme_roots"`
}

// CompileConfig holds scene compilation settings.
type CompileConfig struct {
	// DecodeWorkers bounds the mesh prefetch pool.
	DecodeWorkers int `yaml:"decode_workers"`
	// FallbackExtents are the x/y/z extents of the cuboid substituted
	// for an unresolvable visual mesh.
	FallbackExtents [3]float32 `yaml:"fallback_extents"`
}

// CameraConfig holds default pinhole intrinsics used until runtime
// calibration arrives.
type CameraConfig struct {
	Fx     float32 `yaml:"fx"`
	Fy     float32 `yaml:"fy"`
	Cx     float32 `yaml:"cx"`
	Cy     float32 `yaml:"cy"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			SearchRoot:  ".",
			SchemeRoots: map[string]string{},
		},
		Compile: CompileConfig{
			DecodeWorkers:   4,
			FallbackExtents: [3]float32{0.1, 0.1, 0.1},
		},
		Camera: CameraConfig{
			Fx: 500, Fy: 500,
			Cx: 320, Cy: 240,
			Width: 640, Height: 480,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
