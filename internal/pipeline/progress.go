package pipeline

// Fixed points on the external progress scale.
const (
	ProgressStart          = 5
	ProgressCompressBegin  = 15
	ProgressCompressDone   = 70
	ProgressTranscodeBegin = 75
	ProgressTranscodeDrawn = 85
	ProgressTranscodeDone  = 90
	ProgressDone           = 100

	compressBandScale = 0.5
)

// CompressionPercent maps the compressor's internal 0-100 onto the 15-65 band.
func CompressionPercent(internal int) int {
	if internal < 0 {
		internal = 0
	}
	if internal > 100 {
		internal = 100
	}
	return ProgressCompressBegin + int(float64(internal)*compressBandScale)
}

// ProgressReporter turns stage transitions into a non-decreasing stream of
// updates ending in exactly one 100. It belongs to a single invocation.
type ProgressReporter struct {
	sink     chan<- ProgressUpdate
	last     int
	finished bool
}

// NewProgressReporter reports to sink; a nil sink drops every update.
func NewProgressReporter(sink chan<- ProgressUpdate) *ProgressReporter {
	return &ProgressReporter{sink: sink, last: -1}
}

// Report emits percent unless it would move backwards or repeat. 100 is
// reserved for Finish.
func (r *ProgressReporter) Report(stage Stage, percent int) {
	if r.finished {
		return
	}
	if percent >= ProgressDone {
		percent = ProgressDone - 1
	}
	if percent <= r.last {
		return
	}
	r.last = percent
	r.send(ProgressUpdate{Stage: stage, Percent: percent})
}

// Compressing reports the compressor's internal progress.
func (r *ProgressReporter) Compressing(internal int) {
	r.Report(StageCompress, CompressionPercent(internal))
}

// Finish emits the terminal 100. Later calls are no-ops.
func (r *ProgressReporter) Finish() {
	if r.finished {
		return
	}
	r.finished = true
	r.last = ProgressDone
	r.send(ProgressUpdate{Stage: StageDone, Percent: ProgressDone})
}

// Last returns the most recent value emitted, or -1 before the first.
func (r *ProgressReporter) Last() int {
	return r.last
}

func (r *ProgressReporter) send(u ProgressUpdate) {
	if r.sink != nil {
		r.sink <- u
	}
}
