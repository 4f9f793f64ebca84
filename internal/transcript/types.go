package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Segment is a timestamped span of transcript text. Times are seconds
// from the start of the audio.
type Segment struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a completed transcription: a language and the segments in
// non-decreasing start order as produced by the backend.
type Result struct {
	Language language.Tag
	Segments []Segment
}

// FlexID accepts segment ids that arrive as JSON numbers or strings.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("segment id must be a string or number: %s", string(data))
	}
	*f = FlexID(n.String())
	return nil
}

// RawSegment mirrors the backend segment payload before validation.
type RawSegment struct {
	ID    FlexID  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RawResult mirrors the backend transcription payload before validation.
type RawResult struct {
	Language string       `json:"language"`
	Segments []RawSegment `json:"segments"`
}

// ValidateSegments converts raw backend segments into validated Segments,
// preserving order. Malformed entries are rejected here so that ambiguity
// never reaches the synchronizer or the serializers.
func ValidateSegments(raw []RawSegment) ([]Segment, error) {
	segments := make([]Segment, 0, len(raw))
	for i, r := range raw {
		id := strings.TrimSpace(string(r.ID))
		if id == "" {
			return nil, fmt.Errorf("segment %d: missing id", i)
		}
		if r.Start < 0 {
			return nil, fmt.Errorf("segment %d (id=%s): negative start %f", i, id, r.Start)
		}
		if r.End <= r.Start {
			return nil, fmt.Errorf("segment %d (id=%s): end %f not after start %f", i, id, r.End, r.Start)
		}
		segments = append(segments, Segment{
			ID:    id,
			Start: r.Start,
			End:   r.End,
			Text:  r.Text,
		})
	}
	return segments, nil
}

// BuildResult validates a raw transcription and resolves its language tag.
// When the backend reports no usable language code the language is
// detected from the segment text instead.
func BuildResult(raw RawResult) (Result, error) {
	segments, err := ValidateSegments(raw.Segments)
	if err != nil {
		return Result{}, fmt.Errorf("invalid transcription payload: %w", err)
	}

	tag := language.Und
	if code := strings.TrimSpace(raw.Language); code != "" {
		if parsed, err := language.Parse(code); err == nil {
			tag = parsed
		}
	}
	if tag == language.Und {
		tag = DetectLanguage(segments)
	}

	return Result{Language: tag, Segments: segments}, nil
}
