// Package config holds the recognized scan options, their defaults, and the
// optional YAML configuration file. CLI flags override file values; the
// merged result is validated once before any file is scanned.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file looked up in the working directory.
const DefaultConfigFile = ".epubgrep.yaml"

// Options carries every recognized setting for one run.
type Options struct {
	// IgnoreCase makes pattern matching case-insensitive.
	IgnoreCase bool `yaml:"ignore_case"`

	// MinMatches drops files with fewer total matches from the output.
	MinMatches uint `yaml:"min_matches"`

	// SizeMax bounds both compressed and uncompressed file size.
	// Accepts K/M/G suffixes, e.g. "10M".
	SizeMax string `yaml:"size_max"`

	// Workers is the scan worker pool size. 0 means one per CPU.
	Workers uint `yaml:"workers"`

	// Randomize permutes the candidate processing order.
	Randomize bool `yaml:"randomize"`

	// Seed makes randomized runs reproducible: same seed, same order.
	Seed uint64 `yaml:"seed"`

	// MaxPreviews is the number of context previews kept per file,
	// first-N in match order. 0 disables previews.
	MaxPreviews uint `yaml:"max_previews"`

	// Lead and Lag are the preview context sizes in characters before
	// and after a match.
	Lead uint `yaml:"lead"`
	Lag  uint `yaml:"lag"`

	// Include restricts directory discovery to matching glob patterns.
	Include []string `yaml:"include"`

	// NoColor disables colored output even on a terminal.
	NoColor bool `yaml:"no_color"`

	// Verbose enables debug logging and an option echo before scanning.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in option values.
func Default() Options {
	return Options{
		MinMatches: 1,
		SizeMax:    "10M",
		Lead:       30,
		Lag:        30,
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error when path is the default location; an explicitly named file must
// exist.
func Load(path string, explicit bool) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return opts, nil
		}
		return opts, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}
	return opts, nil
}

// LoadFromDir loads the default config file from dir if present.
func LoadFromDir(dir string) (Options, error) {
	return Load(filepath.Join(dir, DefaultConfigFile), false)
}

// Validate checks the merged options.
func (o *Options) Validate() error {
	if _, err := ParseSize(o.SizeMax); err != nil {
		return err
	}
	return nil
}

// SizeBudget returns SizeMax in bytes.
func (o *Options) SizeBudget() int64 {
	n, err := ParseSize(o.SizeMax)
	if err != nil {
		return 0
	}
	return n
}

// WorkerCount resolves Workers, defaulting to the CPU count.
func (o *Options) WorkerCount() int {
	if o.Workers > 0 {
		return int(o.Workers)
	}
	return runtime.NumCPU()
}

var sizePattern = regexp.MustCompile(`^(\d+)([kKmMgG]?)$`)

// ParseSize parses a byte count with an optional K/M/G suffix.
func ParseSize(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q is not a valid size", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid size: %w", s, err)
	}
	switch m[2] {
	case "k", "K":
		n *= 1024
	case "m", "M":
		n *= 1024 * 1024
	case "g", "G":
		n *= 1024 * 1024 * 1024
	}
	return n, nil
}
