// Package pipeline optimizes one uploaded image per call.
//
// An invocation walks a fixed state machine: the size gate may return the
// original untouched; otherwise the compressor produces a recompressed,
// dimension-capped candidate and, when WebP is enabled and encodable, the
// format negotiator produces a transcoded one. Candidates are folded by
// Select, which keeps the strictly smallest. Stage failures are logged and
// absorbed, so the only errors a caller sees are invalid input and invalid
// options. Progress goes out on Options.Progress and always ends with a
// single 100.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"squeeze/internal/codec"
	"squeeze/internal/logging"
	"squeeze/pkg/imgutil"
)

// Optimizer runs invocations. It holds no per-invocation state and is safe
// for concurrent use.
type Optimizer struct {
	compressor Compressor
	negotiator FormatNegotiator
	codecs     *codec.Registry
	logger     *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger stage failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = logger }
}

// WithCodecs sets the encoder registry and capability probe.
func WithCodecs(codecs *codec.Registry) Option {
	return func(o *Optimizer) { o.codecs = codecs }
}

// WithCompressor replaces the default RasterCompressor.
func WithCompressor(c Compressor) Option {
	return func(o *Optimizer) { o.compressor = c }
}

// New builds an Optimizer with the default codecs unless overridden.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{}
	for _, opt := range opts {
		opt(o)
	}
	if o.codecs == nil {
		o.codecs = codec.Default()
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.compressor == nil {
		o.compressor = NewRasterCompressor(o.codecs)
	}
	o.negotiator = NewFormatNegotiator(o.codecs)
	return o
}

// OptimizeBytes wraps data in a SourceImage and optimizes it. Unrecognized
// input fails with ErrInvalidImage before any progress is emitted.
func (o *Optimizer) OptimizeBytes(ctx context.Context, name string, data []byte, declaredMIME string, opts Options) (*Result, error) {
	src, err := NewSourceImage(name, data, declaredMIME)
	if err != nil {
		return nil, err
	}
	return o.Optimize(ctx, src, opts)
}

// Optimize runs one invocation. ctx is used for log correlation only; the
// pipeline does not stop early on cancellation.
func (o *Optimizer) Optimize(ctx context.Context, src *SourceImage, opts Options) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidImage)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := o.logger.With("invocation", id, "name", src.Name(), "size", src.Size())
	debug := func(msg string, args ...any) {
		if opts.Debug {
			log.DebugContext(ctx, msg, args...)
		}
	}

	progress := NewProgressReporter(opts.Progress)
	defer progress.Finish()

	trace := []State{StateStart}
	progress.Report(StageStart, ProgressStart)

	original := src.original()
	var outcomes []Outcome

	trace = append(trace, StateGateCheck)
	if Skip(src.Size()) {
		debug("below skip threshold, returning original", "threshold", SkipThreshold)
		trace = append(trace, StateSkip, StateDone)
		return o.result(id, src, original, trace), nil
	}

	trace = append(trace, StateCompress)
	progress.Report(StageCompress, ProgressCompressBegin)
	compressed := o.compress(src, opts, progress)
	if compressed.Err != nil {
		log.WarnContext(ctx, "compression failed, keeping original", "error", compressed.Err)
		trace = append(trace, StateCompressFailed)
	} else {
		debug("compressed", "mime", compressed.Candidate.MIME, "bytes", compressed.Candidate.Size())
		trace = append(trace, StateCompressOK)
	}
	outcomes = append(outcomes, compressed)
	best := Fold(original, outcomes...)
	progress.Report(StageCompress, ProgressCompressDone)

	canEncode := o.codecs.CanEncode(o.negotiator.Target)
	if o.negotiator.ShouldAttempt(opts.UseWebP, canEncode, best) {
		progress.Report(StageTranscode, ProgressTranscodeBegin)
		transcoded := o.transcode(best, src.Orientation(), opts.Quality, func() {
			progress.Report(StageTranscode, ProgressTranscodeDrawn)
		})
		if transcoded.Err != nil {
			log.WarnContext(ctx, "transcode failed, keeping previous best", "target", o.negotiator.Target, "error", transcoded.Err)
			trace = append(trace, StateTranscodeFailed)
		} else {
			debug("transcoded", "mime", transcoded.Candidate.MIME, "bytes", transcoded.Candidate.Size(), "best_bytes", best.Size())
			trace = append(trace, StateTranscodeOK)
		}
		outcomes = append(outcomes, transcoded)
		progress.Report(StageTranscode, ProgressTranscodeDone)
	} else {
		debug("transcode skipped", "enabled", opts.UseWebP, "can_encode", canEncode, "best_mime", best.MIME)
		trace = append(trace, StateTranscodeSkipped)
	}

	trace = append(trace, StateSelectBest)
	best = Fold(original, outcomes...)
	debug("selected", "provenance", best.Provenance.String(), "bytes", best.Size())

	trace = append(trace, StateDone)
	return o.result(id, src, best, trace), nil
}

// compress runs the compressor on its own goroutine and forwards its
// sub-progress from this one, so the reporter keeps a single writer.
func (o *Optimizer) compress(src *SourceImage, opts Options, progress *ProgressReporter) Outcome {
	sub := make(chan int, 16)
	done := make(chan Outcome, 1)

	go func() {
		defer close(sub)
		defer func() {
			if r := recover(); r != nil {
				done <- Failed(fmt.Errorf("compressor panic: %v", r))
			}
		}()

		c, err := o.compressor.Compress(src, CompressOptions{
			MaxWidthOrHeight: opts.MaxWidthOrHeight,
			MaxSizeBytes:     opts.maxSizeBytes(),
			Quality:          opts.Quality,
			UseWebP:          opts.UseWebP,
		}, func(p int) { sub <- p })
		if err != nil {
			done <- Failed(err)
			return
		}
		if !opts.UseWebP && imgutil.KindFromMIME(c.MIME) == imgutil.KindWebP {
			done <- Failed(fmt.Errorf("compressor produced %s with webp disabled", c.MIME))
			return
		}
		c.Provenance = ProvenanceCompressed
		done <- Produced(c)
	}()

	for p := range sub {
		progress.Compressing(p)
	}
	return <-done
}

func (o *Optimizer) transcode(best Candidate, orientation int, quality float64, drawn func()) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Errorf("transcode panic: %v", r))
		}
	}()

	c, err := o.negotiator.Transcode(best, orientation, quality, drawn)
	if err != nil {
		return Failed(err)
	}
	return Produced(c)
}

func (o *Optimizer) result(id string, src *SourceImage, best Candidate, trace []State) *Result {
	return &Result{
		ID:           id,
		Name:         outputName(src, best.MIME),
		MIME:         best.MIME,
		Data:         best.Data,
		Provenance:   best.Provenance,
		OriginalSize: src.Size(),
		Trace:        trace,
	}
}

// outputName swaps the extension when the container changed.
func outputName(src *SourceImage, mime string) string {
	kind := imgutil.KindFromMIME(mime)
	if kind == src.Kind() || kind == imgutil.KindUnknown {
		return src.Name()
	}
	base := strings.TrimSuffix(src.Name(), filepath.Ext(src.Name()))
	return base + kind.Extension()
}
