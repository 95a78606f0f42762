package entities

import "time"

// TranscriptSegment is one timestamped, speaker-attributed utterance.
// Immutable once created; owned by the buffer of the meeting it belongs to.
type TranscriptSegment struct {
	Text        string    `json:"text"`
	SpeakerID   string    `json:"speaker_id,omitempty"`
	SpeakerName string    `json:"speaker_name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
