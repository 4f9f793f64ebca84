package backend

import "github.com/vtstudio/transcript-studio/internal/transcript"

// JobState is the backend-reported lifecycle state of a transcription job.
type JobState string

const (
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// JobResult is the payload carried by a completed job.
type JobResult struct {
	OriginalFilename string               `json:"original_filename"`
	ExtractedAudio   string               `json:"extracted_audio"`
	VocalsAudio      string               `json:"vocals_audio"`
	Transcription    transcript.RawResult `json:"transcription"`
}

// JobStatus is the backend's answer to a status query. Exactly one of
// Result (completed) or Error (failed) is meaningful in a terminal state.
type JobStatus struct {
	TaskID string     `json:"task_id,omitempty"`
	Status JobState   `json:"status"`
	Result *JobResult `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Terminal reports whether the status ends the job's lifecycle.
func (s JobStatus) Terminal() bool {
	return s.Status == StateCompleted || s.Status == StateFailed
}
