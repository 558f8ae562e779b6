// Package config holds the immutable run configuration for the training
// engine, replacing the reference implementation's process-global flag
// variables with a single validated struct (spec §9's discussion of
// avoiding global state, mirrored on the teacher's Config/DefaultConfig
// idiom from internal/db).
package config

import (
	"errors"
	"fmt"
)

// Errors mirror spec.md §7's error taxonomy.
var (
	// ErrInputMissing indicates a required input file was not given or
	// could not be opened.
	ErrInputMissing = errors.New("config: required input missing")
	// ErrBadNumericArg indicates a flag value failed range validation.
	ErrBadNumericArg = errors.New("config: bad numeric argument")
)

// Config is the fully-resolved, validated set of training parameters. It is
// built once (via Default plus flag overrides) and never mutated afterward;
// every worker goroutine reads it by value or through a pointer it never
// writes to.
type Config struct {
	// Input/output
	TrainFile     string
	OutputFile    string
	SaveVocabFile string
	ReadVocabFile string

	// Model shape
	Size   int  // embedding dimension
	Window int  // max context window radius
	CBOW   bool // true = CBOW, false = skip-gram

	// Objective
	HierarchicalSoftmax bool
	Negative            int // negative samples per target; 0 disables NEG

	// Training schedule
	Alpha         float64 // starting learning rate
	Sample        float64 // subsampling threshold
	Iterations    int
	MinCount      uint64
	Threads       int
	RowAlign      int // byte alignment for parameter matrix rows
	UnigramTable  int // sampling table size, 0 = sampling.DefaultSize

	// Output shaping
	Binary  bool
	Classes int // >0 runs K-means into N clusters instead of writing vectors
	Debug   int

	// Ambient
	MetricsDB string // optional SQLite run-ledger path, "" disables it
}

// Default returns the reference tool's default configuration for the given
// architecture. CBOW and skip-gram default to different starting learning
// rates, matching the original binary's behavior.
func Default(cbow bool) Config {
	alpha := 0.025
	if cbow {
		alpha = 0.05
	}
	return Config{
		Size:                100,
		Window:              5,
		CBOW:                cbow,
		HierarchicalSoftmax: false,
		Negative:            5,
		Alpha:               alpha,
		Sample:              1e-3,
		Iterations:          5,
		MinCount:            5,
		Threads:             12,
		RowAlign:            64,
		Binary:              false,
		Classes:             0,
		Debug:               2,
	}
}

// Validate rejects an unusable configuration before any worker spawns,
// matching spec §7's BadNumericArg / InputMissing cause.
func (c Config) Validate() error {
	if c.TrainFile == "" && c.ReadVocabFile == "" {
		return fmt.Errorf("%w: one of -train or -read-vocab is required", ErrInputMissing)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("%w: -output is required", ErrInputMissing)
	}
	if c.Size <= 0 {
		return fmt.Errorf("%w: -size must be positive, got %d", ErrBadNumericArg, c.Size)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: -window must be positive, got %d", ErrBadNumericArg, c.Window)
	}
	if c.Sample < 0 {
		return fmt.Errorf("%w: -sample must be >= 0, got %g", ErrBadNumericArg, c.Sample)
	}
	if c.Negative < 0 {
		return fmt.Errorf("%w: -negative must be >= 0, got %d", ErrBadNumericArg, c.Negative)
	}
	if !c.HierarchicalSoftmax && c.Negative == 0 {
		return fmt.Errorf("%w: at least one of -hs or -negative must be enabled", ErrBadNumericArg)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("%w: -threads must be positive, got %d", ErrBadNumericArg, c.Threads)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: -iter must be positive, got %d", ErrBadNumericArg, c.Iterations)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("%w: -alpha must be positive, got %g", ErrBadNumericArg, c.Alpha)
	}
	if c.RowAlign <= 0 || c.RowAlign < 16 || c.RowAlign&(c.RowAlign-1) != 0 {
		return fmt.Errorf("%w: -align must be a power of two >= 16, got %d", ErrBadNumericArg, c.RowAlign)
	}
	if c.Classes < 0 {
		return fmt.Errorf("%w: -classes must be >= 0, got %d", ErrBadNumericArg, c.Classes)
	}
	return nil
}
