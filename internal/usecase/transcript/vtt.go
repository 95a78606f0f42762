package transcript

import (
	"strings"
	"time"

	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
)

// ParseVTT extracts transcript segments from WebVTT content. Cue blocks are
// separated by blank lines; a block contributes a segment when it carries a
// "-->" timing line followed by at least one text line. Voice tags of the
// form <v Speaker Name>text</v> yield the speaker; malformed blocks are
// skipped rather than failing the whole document.
func ParseVTT(content string) []entities.TranscriptSegment {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(normalized, "\n\n")

	segments := make([]entities.TranscriptSegment, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timingIdx := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timingIdx = i
				break
			}
		}
		if timingIdx < 0 || timingIdx == len(lines)-1 {
			continue
		}

		start := strings.TrimSpace(strings.SplitN(lines[timingIdx], "-->", 2)[0])
		timestamp := parseCueTimestamp(start)

		text := strings.TrimSpace(strings.Join(lines[timingIdx+1:], " "))
		if text == "" {
			continue
		}

		speaker, spoken := splitVoiceTag(text)
		if spoken == "" {
			continue
		}

		segments = append(segments, entities.TranscriptSegment{
			Text:        spoken,
			SpeakerID:   speaker,
			SpeakerName: speaker,
			Timestamp:   timestamp,
		})
	}
	return segments
}

// splitVoiceTag unwraps <v Name>text</v>; input without a voice tag is
// returned as-is with an empty speaker.
func splitVoiceTag(text string) (speaker, spoken string) {
	if !strings.HasPrefix(text, "<v") {
		return "", text
	}
	closeIdx := strings.Index(text, ">")
	if closeIdx < 0 {
		return "", text
	}
	speaker = strings.TrimSpace(strings.TrimPrefix(text[:closeIdx], "<v"))
	spoken = text[closeIdx+1:]
	if endIdx := strings.Index(spoken, "</v>"); endIdx >= 0 {
		spoken = spoken[:endIdx]
	}
	return speaker, strings.TrimSpace(spoken)
}

// parseCueTimestamp interprets HH:MM:SS.mmm or MM:SS.mmm cue offsets as
// wall-clock times on the current day. Unparseable offsets fall back to
// the current time so a bad cue still lands in the right summary window.
func parseCueTimestamp(raw string) time.Time {
	now := time.Now()

	var parsed time.Time
	var err error
	switch strings.Count(raw, ":") {
	case 2:
		parsed, err = time.Parse("15:04:05.000", raw)
		if err != nil {
			parsed, err = time.Parse("15:04:05", raw)
		}
	case 1:
		parsed, err = time.Parse("04:05.000", raw)
		if err != nil {
			parsed, err = time.Parse("04:05", raw)
		}
	default:
		return now
	}
	if err != nil {
		return now
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second +
		time.Duration(parsed.Nanosecond())
	return midnight.Add(offset)
}
