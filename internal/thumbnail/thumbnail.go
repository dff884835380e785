// Package thumbnail produces the small preview still cached on each project.
// Generation is a best-effort capability: callers must tolerate absent.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os/exec"
)

// Generator rasterizes one frame of a video into a compressed still, returned
// as a data URL. ok=false on any decode failure; never an error — a project
// without a thumbnail is fine, a failed open is not.
type Generator interface {
	Generate(ctx context.Context, videoPath string) (dataURL string, ok bool)
}

// Func adapts a plain function to a Generator.
type Func func(ctx context.Context, videoPath string) (string, bool)

func (f Func) Generate(ctx context.Context, videoPath string) (string, bool) {
	return f(ctx, videoPath)
}

// Frame grab parameters: a fixed 0.5s seek (skips black lead-in frames on
// most footage) rasterized to a small fixed-width canvas.
const (
	seekOffset = "0.5"
	frameWidth = 320
)

// FFmpeg shells out to an ffmpeg binary for the frame grab.
type FFmpeg struct {
	BinPath string // path to ffmpeg; plain "ffmpeg" (PATH lookup) when empty
}

func (f *FFmpeg) Generate(ctx context.Context, videoPath string) (string, bool) {
	bin := f.BinPath
	if bin == "" {
		bin = "ffmpeg"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"-ss", seekOffset,
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", frameWidth),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Printf("thumbnail: ffmpeg failed for %s: %v (%s)", videoPath, err, stderr.String())
		return "", false
	}
	if stdout.Len() == 0 {
		return "", false
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(stdout.Bytes()), true
}
