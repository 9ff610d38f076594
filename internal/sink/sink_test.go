package sink

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"squeeze/internal/pipeline"
)

func writeInput(t *testing.T, dir, rel string, data []byte) Source {
	t.Helper()

	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return Source{Path: p, RelPath: rel}
}

func TestFileOutputDir(t *testing.T) {
	dir := t.TempDir()
	src := writeInput(t, dir, filepath.Join("nested", "photo.jpg"), []byte("original"))
	out := filepath.Join(dir, "out")

	res := &pipeline.Result{Name: "photo.jpg", MIME: "image/jpeg", Data: []byte("smaller"), Provenance: pipeline.ProvenanceCompressed}
	dest, err := File{OutputDir: out}.Put(context.Background(), src, res)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if dest != filepath.Join(out, "nested", "photo.jpg") {
		t.Fatalf("dest = %s", dest)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, res.Data) {
		t.Fatalf("got %q", got)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}

	orig, _ := os.ReadFile(src.Path)
	if string(orig) != "original" {
		t.Fatal("input modified")
	}
}

func TestFileInPlaceRenamesOnFormatChange(t *testing.T) {
	dir := t.TempDir()
	src := writeInput(t, dir, "photo.jpeg", []byte("original"))

	res := &pipeline.Result{Name: "photo.webp", MIME: "image/webp", Data: []byte("webp"), Provenance: pipeline.ProvenanceTranscoded}
	dest, err := File{InPlace: true}.Put(context.Background(), src, res)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if dest != filepath.Join(dir, "photo.webp") {
		t.Fatalf("dest = %s", dest)
	}
	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Fatalf("expected original removed, got %v", err)
	}
}

func TestFileInPlaceKeepsUnchangedInput(t *testing.T) {
	dir := t.TempDir()
	src := writeInput(t, dir, "photo.jpeg", []byte("original"))

	res := &pipeline.Result{Name: "photo.jpeg", MIME: "image/jpeg", Data: []byte("original"), Provenance: pipeline.ProvenanceOriginal}
	dest, err := File{InPlace: true}.Put(context.Background(), src, res)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if dest != src.Path {
		t.Fatalf("dest = %s", dest)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the input, got %d entries", len(entries))
	}
}

func TestFileRejectsOutputOverInput(t *testing.T) {
	dir := t.TempDir()
	src := writeInput(t, dir, "photo.jpg", []byte("original"))

	res := &pipeline.Result{Name: "photo.jpg", Data: []byte("x")}
	if _, err := (File{OutputDir: dir}).Put(context.Background(), src, res); err == nil {
		t.Fatal("expected error when output resolves to input")
	}
	if _, err := (File{}).Put(context.Background(), src, res); err == nil {
		t.Fatal("expected error without output dir")
	}
}

func TestWithExtension(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"a/b.jpeg", ".jpg", "a/b.jpeg"},
		{"a/b.JPG", ".jpg", "a/b.JPG"},
		{"a/b.jpg", ".webp", "a/b.webp"},
		{"a/b.bmp", ".jpg", "a/b.jpg"},
		{"a/b", ".png", "a/b.png"},
		{"a/b.png", "", "a/b.png"},
	}
	for _, tt := range tests {
		if got := withExtension(tt.path, tt.ext); got != tt.want {
			t.Fatalf("withExtension(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

type recordingPutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
}

func (r *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	r.inputs = append(r.inputs, in)
	r.bodies = append(r.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Put(t *testing.T) {
	putter := &recordingPutter{}
	s := NewS3WithClient(putter, S3Options{Bucket: "media", Prefix: "uploads"})

	res := &pipeline.Result{Name: "cat.webp", MIME: "image/webp", Data: []byte("webpdata")}
	loc, err := s.Put(context.Background(), Source{Path: "/tmp/in/pets/cat.png", RelPath: filepath.Join("pets", "cat.png")}, res)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if loc != "s3://media/uploads/pets/cat.webp" {
		t.Fatalf("location = %s", loc)
	}

	if len(putter.inputs) != 1 {
		t.Fatalf("expected one upload, got %d", len(putter.inputs))
	}
	in := putter.inputs[0]
	if aws.ToString(in.Bucket) != "media" || aws.ToString(in.Key) != "uploads/pets/cat.webp" {
		t.Fatalf("bucket/key = %s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if aws.ToString(in.ContentType) != "image/webp" || aws.ToInt64(in.ContentLength) != 8 {
		t.Fatalf("content = %s/%d", aws.ToString(in.ContentType), aws.ToInt64(in.ContentLength))
	}
	if string(putter.bodies[0]) != "webpdata" {
		t.Fatalf("body = %q", putter.bodies[0])
	}
}
