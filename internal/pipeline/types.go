package pipeline

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidImage marks input that is not a recognizable image binary.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidOptions marks an OptimizationConfig outside its documented ranges.
	ErrInvalidOptions = errors.New("invalid options")
)

// Provenance records which stage produced a candidate.
type Provenance int

const (
	ProvenanceOriginal Provenance = iota
	ProvenanceCompressed
	ProvenanceTranscoded
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceOriginal:
		return "original"
	case ProvenanceCompressed:
		return "compressed"
	case ProvenanceTranscoded:
		return "transcoded"
	default:
		return "unknown"
	}
}

// Candidate is one fully produced encoding of the image.
type Candidate struct {
	Data       []byte
	MIME       string
	Provenance Provenance
}

// Size returns the encoded byte length.
func (c Candidate) Size() int64 {
	return int64(len(c.Data))
}

// Outcome is what a stage hands to the selector: a candidate, or the error
// that kept the stage from producing one.
type Outcome struct {
	Candidate Candidate
	Err       error
}

// Failed wraps a stage error as an outcome with no candidate.
func Failed(err error) Outcome {
	return Outcome{Err: err}
}

// Produced wraps a candidate as a successful outcome.
func Produced(c Candidate) Outcome {
	return Outcome{Candidate: c}
}

// Stage names the external progress band an update belongs to.
type Stage string

const (
	StageStart     Stage = "start"
	StageCompress  Stage = "compress"
	StageTranscode Stage = "transcode"
	StageDone      Stage = "done"
)

// ProgressUpdate is one value on the external 0-100 progress scale.
type ProgressUpdate struct {
	Stage   Stage
	Percent int
}

// State is a node of the per-invocation state machine.
type State int

const (
	StateStart State = iota
	StateGateCheck
	StateSkip
	StateCompress
	StateCompressOK
	StateCompressFailed
	StateTranscodeOK
	StateTranscodeSkipped
	StateTranscodeFailed
	StateSelectBest
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateGateCheck:
		return "GATE_CHECK"
	case StateSkip:
		return "SKIP"
	case StateCompress:
		return "COMPRESS"
	case StateCompressOK:
		return "COMPRESS_OK"
	case StateCompressFailed:
		return "COMPRESS_FAILED"
	case StateTranscodeOK:
		return "TRANSCODE_OK"
	case StateTranscodeSkipped:
		return "TRANSCODE_SKIPPED"
	case StateTranscodeFailed:
		return "TRANSCODE_FAILED"
	case StateSelectBest:
		return "SELECT_BEST"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options is the caller's OptimizationConfig. The pipeline only reads it.
type Options struct {
	// MaxWidthOrHeight caps the longest side in pixels.
	MaxWidthOrHeight int
	// MaxSizeMB is the size the compressor iterates towards.
	MaxSizeMB float64
	// Quality is the lossy encoder quality in (0,1].
	Quality float64
	// UseWebP enables the transcode stage.
	UseWebP bool
	// Debug turns on per-stage debug logging.
	Debug bool
	// Progress receives updates on the 0-100 scale. Sends block, so the
	// caller must drain it. Nil disables reporting.
	Progress chan<- ProgressUpdate
}

// DefaultOptions returns the constraints used by the CLI when nothing is set.
func DefaultOptions() Options {
	return Options{
		MaxWidthOrHeight: 1920,
		MaxSizeMB:        1,
		Quality:          0.8,
		UseWebP:          true,
	}
}

// Validate checks the documented ranges.
func (o Options) Validate() error {
	if o.MaxWidthOrHeight <= 0 {
		return fmt.Errorf("%w: maxWidthOrHeight must be positive, got %d", ErrInvalidOptions, o.MaxWidthOrHeight)
	}
	if o.MaxSizeMB <= 0 || math.IsNaN(o.MaxSizeMB) {
		return fmt.Errorf("%w: maxSizeMB must be positive, got %v", ErrInvalidOptions, o.MaxSizeMB)
	}
	if !(o.Quality > 0 && o.Quality <= 1) {
		return fmt.Errorf("%w: quality must be in (0,1], got %v", ErrInvalidOptions, o.Quality)
	}
	return nil
}

func (o Options) maxSizeBytes() int64 {
	bytes := o.MaxSizeMB * 1024 * 1024
	if bytes >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(bytes)
}

// Result is the image handed to the upload collaborator.
type Result struct {
	// ID correlates the invocation with its log lines.
	ID           string
	Name         string
	MIME         string
	Data         []byte
	Provenance   Provenance
	OriginalSize int64
	Trace        []State
}

// Size returns the output byte length.
func (r *Result) Size() int64 {
	return int64(len(r.Data))
}

// Saved returns how many bytes the optimization removed.
func (r *Result) Saved() int64 {
	return r.OriginalSize - r.Size()
}
