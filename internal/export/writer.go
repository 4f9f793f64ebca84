// Package export serializes an ordered segment list into the interchange
// formats offered to the user: SRT subtitles and a plain-text transcript.
package export

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/vtstudio/transcript-studio/internal/timefmt"
	"github.com/vtstudio/transcript-studio/internal/transcript"
	"github.com/vtstudio/transcript-studio/pkg/file"
)

// SubtitleText renders segments as SRT: a four-line block per segment
// with a 1-based running index independent of the segment ids. Segment
// text is emitted verbatim, embedded newlines included. An empty input
// yields an empty string.
func SubtitleText(segments []transcript.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", timefmt.SubtitleTimecode(seg.Start), timefmt.SubtitleTimecode(seg.End))
		fmt.Fprintf(&b, "%s\n\n", seg.Text)
	}
	return b.String()
}

// PlainText renders segment texts joined by single newlines, with no
// indices or timing.
func PlainText(segments []transcript.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return strings.Join(texts, "\n")
}

// WriteSubtitleFile writes the SRT rendition of segments to path.
func WriteSubtitleFile(path string, segments []transcript.Segment) error {
	return writeFile(path, SubtitleText(segments))
}

// WritePlainTextFile writes the plain-text rendition of segments to path.
func WritePlainTextFile(path string, segments []transcript.Segment) error {
	return writeFile(path, PlainText(segments))
}

func writeFile(path, content string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	defer writer.Flush()

	if _, err := writer.WriteString(content); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// BaseName derives the export file base name from the original media
// filename by stripping its extension.
func BaseName(originalFilename string) string {
	if originalFilename == "" {
		return "transcript"
	}
	return file.StripExt(originalFilename)
}
