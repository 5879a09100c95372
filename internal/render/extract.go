package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExtractClip cuts a time range out of the source and re-frames it as a
// 9:16 vertical short. The crop keeps the center of the frame and the
// scale normalizes output to 1080x1920.
func ExtractClip(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if durationSec <= 0 {
		return fmt.Errorf("extract clip: invalid duration %.3f", durationSec)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", source,
		"-vf", "crop=min(iw\\,ih*9/16):ih,scale=1080:1920",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg clip: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
