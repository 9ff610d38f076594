package pipeline

import (
	"errors"
	"testing"
)

func TestSkip(t *testing.T) {
	tests := []struct {
		size int64
		want bool
	}{
		{0, true},
		{30 * 1024, true},
		{SkipThreshold, true},
		{SkipThreshold + 1, false},
		{500 * 1024, false},
	}
	for _, tt := range tests {
		if got := Skip(tt.size); got != tt.want {
			t.Fatalf("Skip(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestSelect(t *testing.T) {
	original := Candidate{Data: make([]byte, 100), MIME: "image/jpeg"}
	smaller := Candidate{Data: make([]byte, 60), MIME: "image/webp", Provenance: ProvenanceTranscoded}
	equal := Candidate{Data: make([]byte, 100), MIME: "image/png", Provenance: ProvenanceCompressed}
	larger := Candidate{Data: make([]byte, 140), MIME: "image/jpeg", Provenance: ProvenanceCompressed}

	tests := []struct {
		name    string
		outcome Outcome
		want    Candidate
	}{
		{"smaller wins", Produced(smaller), smaller},
		{"equal keeps best", Produced(equal), original},
		{"larger keeps best", Produced(larger), original},
		{"failure keeps best", Failed(errors.New("boom")), original},
		{"empty never accepted", Produced(Candidate{MIME: "image/webp"}), original},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(original, tt.outcome)
			if got.Size() != tt.want.Size() || got.MIME != tt.want.MIME {
				t.Fatalf("got %s/%d, want %s/%d", got.MIME, got.Size(), tt.want.MIME, tt.want.Size())
			}
		})
	}
}

func TestFoldKeepsSmallest(t *testing.T) {
	original := Candidate{Data: make([]byte, 100)}
	got := Fold(original,
		Produced(Candidate{Data: make([]byte, 80), Provenance: ProvenanceCompressed}),
		Failed(errors.New("transcode")),
		Produced(Candidate{Data: make([]byte, 90), Provenance: ProvenanceTranscoded}),
	)
	if got.Size() != 80 || got.Provenance != ProvenanceCompressed {
		t.Fatalf("got %d bytes from %s", got.Size(), got.Provenance)
	}
	if Fold(original).Size() != 100 {
		t.Fatal("fold without outcomes must return initial")
	}
}

func TestCompressionPercent(t *testing.T) {
	tests := []struct {
		internal, want int
	}{
		{-5, 15},
		{0, 15},
		{50, 40},
		{100, 65},
		{250, 65},
	}
	for _, tt := range tests {
		if got := CompressionPercent(tt.internal); got != tt.want {
			t.Fatalf("CompressionPercent(%d) = %d, want %d", tt.internal, got, tt.want)
		}
	}
}

func TestProgressReporterMonotonic(t *testing.T) {
	ch := make(chan ProgressUpdate, 32)
	r := NewProgressReporter(ch)

	r.Report(StageStart, ProgressStart)
	r.Report(StageCompress, ProgressCompressBegin)
	r.Compressing(40)
	r.Compressing(20)
	r.Compressing(40)
	r.Report(StageCompress, ProgressCompressDone)
	r.Report(StageStart, ProgressStart)
	r.Report(StageTranscode, 100)
	r.Finish()
	r.Finish()
	r.Report(StageTranscode, ProgressTranscodeDone)
	close(ch)

	var got []int
	for u := range ch {
		got = append(got, u.Percent)
	}
	want := []int{5, 15, 35, 70, 99, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if r.Last() != ProgressDone {
		t.Fatalf("last = %d", r.Last())
	}
}

func TestProgressReporterNilSink(t *testing.T) {
	r := NewProgressReporter(nil)
	r.Report(StageStart, ProgressStart)
	r.Finish()
	if r.Last() != ProgressDone {
		t.Fatalf("last = %d", r.Last())
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults: %v", err)
	}

	bad := []Options{
		{MaxWidthOrHeight: 0, MaxSizeMB: 1, Quality: 0.8},
		{MaxWidthOrHeight: 10, MaxSizeMB: 0, Quality: 0.8},
		{MaxWidthOrHeight: 10, MaxSizeMB: 1, Quality: 0},
		{MaxWidthOrHeight: 10, MaxSizeMB: 1, Quality: 1.2},
	}
	for _, opts := range bad {
		if err := opts.Validate(); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("%+v: expected ErrInvalidOptions, got %v", opts, err)
		}
	}
}
