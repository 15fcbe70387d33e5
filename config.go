package impulse

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/partition"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// PARTITION_SIZE_MAX is the default edge of the top level partition cells
	PARTITION_SIZE_MAX = 16.0
	// PARTITION_SIZE_MIN is the default edge of the partition leaves
	PARTITION_SIZE_MIN = 4.0
	// HEIGHT_QUERY_DEPTH is the default distance scanned below a point by DetermineHeight
	HEIGHT_QUERY_DEPTH = 1000.0
)

// Config holds the world settings, loadable from TOML or YAML
type Config struct {
	Gravity mgl64.Vec3 `toml:"gravity" yaml:"gravity"`

	// Partition is one of none, octree, quadtree
	Partition        string  `toml:"partition" yaml:"partition"`
	PartitionSizeMax float64 `toml:"partition_size_max" yaml:"partition_size_max"`
	PartitionSizeMin float64 `toml:"partition_size_min" yaml:"partition_size_min"`

	SplitImpulse bool `toml:"split_impulse" yaml:"split_impulse"`

	SleepVelocity float64 `toml:"sleep_velocity" yaml:"sleep_velocity"`
	SleepFrames   int     `toml:"sleep_frames" yaml:"sleep_frames"`

	BodyLimit        int     `toml:"body_limit" yaml:"body_limit"`
	HeightQueryDepth float64 `toml:"height_query_depth" yaml:"height_query_depth"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:          mgl64.Vec3{0, -9.81, 0},
		Partition:        partition.KindOctTree.String(),
		PartitionSizeMax: PARTITION_SIZE_MAX,
		PartitionSizeMin: PARTITION_SIZE_MIN,
		SplitImpulse:     true,
		SleepVelocity:    actor.VELOCITY_SLEEPTOLERANCE,
		SleepFrames:      actor.SLEEPING_FRAMES,
		BodyLimit:        constraint.BODIES_MAX,
		HeightQueryDepth: HEIGHT_QUERY_DEPTH,
		LogLevel:         "info",
	}
}

// LoadConfig reads a config file, TOML or YAML depending on its extension.
// Keys missing from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, errors.Wrap(ErrConfigFormat, path)
	}
	if err != nil {
		return DefaultConfig(), errors.Wrapf(err, "decoding config %s", path)
	}

	return cfg, nil
}

// Validate resets the invalid fields to their default value.
// The returned error wraps ErrInvalidConfig and names the fields reset, it is nil when none was.
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	var reset []string

	if _, err := partition.ParseKind(c.Partition); err != nil {
		c.Partition = defaults.Partition
		reset = append(reset, "partition")
	}
	if !(c.PartitionSizeMax > 0) {
		c.PartitionSizeMax = defaults.PartitionSizeMax
		reset = append(reset, "partition_size_max")
	}
	if !(c.PartitionSizeMin > 0) || c.PartitionSizeMin > c.PartitionSizeMax {
		c.PartitionSizeMin = c.PartitionSizeMax
		if defaults.PartitionSizeMin <= c.PartitionSizeMax {
			c.PartitionSizeMin = defaults.PartitionSizeMin
		}
		reset = append(reset, "partition_size_min")
	}
	if !(c.SleepVelocity > 0) {
		c.SleepVelocity = defaults.SleepVelocity
		reset = append(reset, "sleep_velocity")
	}
	if c.SleepFrames <= 0 {
		c.SleepFrames = defaults.SleepFrames
		reset = append(reset, "sleep_frames")
	}
	if c.BodyLimit <= 0 || c.BodyLimit > constraint.BODIES_MAX {
		c.BodyLimit = defaults.BodyLimit
		reset = append(reset, "body_limit")
	}
	if !(c.HeightQueryDepth > 0) {
		c.HeightQueryDepth = defaults.HeightQueryDepth
		reset = append(reset, "height_query_depth")
	}
	for _, v := range c.Gravity {
		if v != v {
			c.Gravity = defaults.Gravity
			reset = append(reset, "gravity")
			break
		}
	}

	if len(reset) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(reset, ", "))
	}

	return nil
}
