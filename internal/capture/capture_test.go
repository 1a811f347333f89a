package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"missing url", Options{OutputPath: "x.png"}, true},
		{"relative url", Options{URL: "/calendar", OutputPath: "x.png"}, true},
		{"ftp url", Options{URL: "ftp://host/calendar", OutputPath: "x.png"}, true},
		{"missing output", Options{URL: "http://127.0.0.1:8080/calendar"}, true},
		{"ok", Options{URL: "http://127.0.0.1:8080/calendar", OutputPath: "x.png"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			err := o.normalize()
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalize() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Scale != 2 || o.Timeout != DefaultTimeout {
					t.Errorf("defaults not applied: %+v", o)
				}
			}
		})
	}
}

func TestScreenshotRejectsBadOptions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Screenshot(ctx, Options{URL: "not a url", OutputPath: "x.png"}); err == nil {
		t.Error("expected validation error before launching a browser")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "calendar.png")
	if err := writeFileAtomic(path, []byte("png")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "png" {
		t.Errorf("read back %q, %v", got, err)
	}
}
