package export

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vtstudio/transcript-studio/internal/transcript"
)

var srtTimeRe = regexp.MustCompile(`(\d{2,}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2,}):(\d{2}):(\d{2}),(\d{3})`)

// ParseSubtitleText parses SRT text back into segments. The cue index
// becomes the segment id. Used to re-open previously exported files and
// to verify that exports round-trip.
func ParseSubtitleText(s string) ([]transcript.Segment, error) {
	var segments []transcript.Segment

	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := transcript.Segment{}
	state := "index" // "index", "time", "text"
	var textLines []string

	flush := func() {
		current.Text = strings.Join(textLines, "\n")
		segments = append(segments, current)
		current = transcript.Segment{}
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch state {
		case "index":
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			index, err := strconv.Atoi(trimmed)
			if err != nil {
				continue // skip non-index lines
			}
			current.ID = strconv.Itoa(index)
			state = "time"

		case "time":
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			start, end, err := parseTimeLine(trimmed)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %w", err)
			}
			current.Start = start
			current.End = end
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				// A parsed time line opened the cue, so the blank line
				// closes it even when the cue text is empty.
				flush()
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// handle a final cue with no trailing blank line
	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan subtitle text: %w", err)
	}

	return segments, nil
}

func parseTimeLine(line string) (float64, float64, error) {
	matches := srtTimeRe.FindStringSubmatch(line)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", line)
	}

	toSeconds := func(hours, minutes, seconds, millis string) float64 {
		h, _ := strconv.Atoi(hours)
		m, _ := strconv.Atoi(minutes)
		s, _ := strconv.Atoi(seconds)
		ms, _ := strconv.Atoi(millis)
		return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000
	}

	return toSeconds(matches[1], matches[2], matches[3], matches[4]),
		toSeconds(matches[5], matches[6], matches[7], matches[8]),
		nil
}
