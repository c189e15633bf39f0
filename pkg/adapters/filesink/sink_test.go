package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/pushwork/pkg/mocks"
	"github.com/user/pushwork/pkg/ports"
)

var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveRunJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"framesPushed": 3}`)
	if err := sink.SaveRunJSON(data); err != nil {
		t.Fatalf("SaveRunJSON failed: %v", err)
	}

	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "run.json"))
	if !ok {
		t.Fatal("expected run.json to be saved")
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	var gotFormat ports.ImageFormat
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			gotFormat = format
			return []byte("png-data"), nil
		},
	}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveFrame(42, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}

	if gotFormat != ports.FormatPNG {
		t.Errorf("expected PNG encoding, got %s", gotFormat)
	}
	saved, ok := fs.GetFile(filepath.Join(testBaseDir, "frames", "frame-000042.png"))
	if !ok || string(saved) != "png-data" {
		t.Errorf("expected frame file with encoded data, got %q", saved)
	}
}

func TestSink_SaveFrameEncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(image.Image, ports.ImageFormat, int) ([]byte, error) {
			return nil, errors.New("encoder broke")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveFrame(1, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("expected no files written")
	}
}
