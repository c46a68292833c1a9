// Package highlight scores candidate time ranges of a video for their
// suitability as short clips. Scoring combines speech density, subject
// presence, scene-change dynamics and engagement keywords into a weighted
// total; the top candidates become segments for the crop planner.
//
// Transcription is not performed here; transcript segments arrive as input
// data from the caller.
package highlight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maauso/autoframe/internal/detect"
	"github.com/maauso/autoframe/internal/source"
)

// viralKeywords are terms that correlate with engaging content, grouped by
// category. Categories only organize the list; scoring is flat.
var viralKeywords = map[string][]string{
	"high_energy":    {"wow", "amazing", "incredible", "unbelievable", "insane", "crazy", "shocking"},
	"emotional":      {"love", "hate", "fear", "surprised", "excited", "angry", "happy", "sad"},
	"call_to_action": {"watch", "look", "check", "listen", "see", "wait", "stop"},
	"controversy":    {"wrong", "right", "worst", "best", "never", "always", "secret", "truth"},
	"questions":      {"why", "how", "what", "when", "where", "who"},
}

// Normalization caps: values at or above these rates score 1.0.
const (
	wordsPerSecondCap = 3.0
	sceneChangesCap   = 3.0
	keywordsCap       = 5.0
)

// TranscriptSegment is one timed piece of transcript text.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Weights control the contribution of each signal to the total score.
type Weights struct {
	SpeechEnergy float64 `json:"speech_energy"`
	FacePresence float64 `json:"face_presence"`
	SceneChanges float64 `json:"scene_changes"`
	Keywords     float64 `json:"keywords"`
}

// DefaultWeights favor speech and keywords slightly over visual signals.
func DefaultWeights() Weights {
	return Weights{
		SpeechEnergy: 0.3,
		FacePresence: 0.2,
		SceneChanges: 0.2,
		Keywords:     0.3,
	}
}

// Candidate is a potential clip time range.
type Candidate struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Scored is a candidate with its computed score and matched keywords.
type Scored struct {
	Candidate
	Duration float64  `json:"duration"`
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords"`
}

// SpeechEnergy returns the words-per-second rate inside [start, end],
// normalized to [0, 1]. Only transcript segments fully contained in the
// range count.
func SpeechEnergy(transcript []TranscriptSegment, start, end float64) float64 {
	if end <= start {
		return 0
	}

	words := 0
	for _, seg := range transcript {
		if seg.Start >= start && seg.End <= end {
			words += len(strings.Fields(seg.Text))
		}
	}

	rate := float64(words) / (end - start)
	return min(rate/wordsPerSecondCap, 1.0)
}

// Keywords returns the engagement keywords appearing in the transcript text
// inside [start, end].
func Keywords(transcript []TranscriptSegment, start, end float64) []string {
	var parts []string
	for _, seg := range transcript {
		if seg.Start >= start && seg.End <= end {
			parts = append(parts, strings.ToLower(seg.Text))
		}
	}
	text := strings.Join(parts, " ")

	var found []string
	for _, group := range viralKeywords {
		for _, kw := range group {
			if strings.Contains(text, kw) {
				found = append(found, kw)
			}
		}
	}

	sort.Strings(found)
	return found
}

// CountSceneChanges counts scene-change timestamps inside [start, end].
func CountSceneChanges(sceneTimes []float64, start, end float64) int {
	n := 0
	for _, t := range sceneTimes {
		if t >= start && t <= end {
			n++
		}
	}
	return n
}

// Candidates generates candidate clip ranges. Transcript boundaries are the
// natural cut points; when the transcript is sparse, a half-overlapping
// sliding window over the whole duration fills in.
func Candidates(duration float64, transcript []TranscriptSegment, targetSec, minSec, maxSec int) []Candidate {
	var out []Candidate

	for i, seg := range transcript {
		start := seg.Start
		for j := i; j < len(transcript); j++ {
			length := transcript[j].End - start
			if length < float64(minSec) || length > float64(maxSec) {
				continue
			}
			// Close enough to the target: accept and move on.
			if length > float64(targetSec)-5 && length < float64(targetSec)+5 {
				out = append(out, Candidate{Start: start, End: transcript[j].End})
				break
			}
		}
	}

	if len(out) < 10 {
		step := max(targetSec/2, 1)
		for start := 0; float64(start) < duration; start += step {
			end := min(float64(start+targetSec), duration)
			length := end - float64(start)
			if length >= float64(minSec) && length <= float64(maxSec) {
				out = append(out, Candidate{Start: float64(start), End: end})
			}
		}
	}

	return out
}

// Scorer computes candidate scores that need frame access.
type Scorer struct {
	detector detect.Detector
	samples  int
	logger   *slog.Logger
}

// NewScorer creates a Scorer sampling the given number of frames per
// candidate for the subject-presence signal.
func NewScorer(detector detect.Detector, samples int, logger *slog.Logger) *Scorer {
	if samples <= 0 {
		samples = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{detector: detector, samples: samples, logger: logger}
}

// FacePresence returns the fraction of sampled frames containing at least
// one detected subject. Detector errors on individual frames count as
// absent frames.
func (s *Scorer) FacePresence(ctx context.Context, src source.FrameSource, start, end float64) (float64, error) {
	frames, err := src.SampleFrames(ctx, start, end, s.samples)
	if err != nil {
		return 0, fmt.Errorf("highlight: sample frames: %w", err)
	}
	if len(frames) == 0 {
		return 0, nil
	}

	present := 0
	for i, frame := range frames {
		dets, err := s.detector.Detect(ctx, frame)
		if err != nil {
			s.logger.Debug("presence detection failed",
				slog.Int("sample", i),
				slog.String("error", err.Error()))
			continue
		}
		if len(dets) > 0 {
			present++
		}
	}

	return float64(present) / float64(s.samples), nil
}

// Score computes the weighted total for one candidate.
func (s *Scorer) Score(ctx context.Context, src source.FrameSource, c Candidate, transcript []TranscriptSegment, sceneTimes []float64, w Weights) (Scored, error) {
	speech := SpeechEnergy(transcript, c.Start, c.End)

	face, err := s.FacePresence(ctx, src, c.Start, c.End)
	if err != nil {
		return Scored{}, err
	}

	scenes := min(float64(CountSceneChanges(sceneTimes, c.Start, c.End))/sceneChangesCap, 1.0)

	keywords := Keywords(transcript, c.Start, c.End)
	kwScore := min(float64(len(keywords))/keywordsCap, 1.0)

	total := speech*w.SpeechEnergy +
		face*w.FacePresence +
		scenes*w.SceneChanges +
		kwScore*w.Keywords

	s.logger.Debug("candidate scored",
		slog.Float64("start", c.Start),
		slog.Float64("end", c.End),
		slog.Float64("speech", speech),
		slog.Float64("face", face),
		slog.Float64("scenes", scenes),
		slog.Float64("keywords", kwScore),
		slog.Float64("total", total))

	return Scored{
		Candidate: c,
		Duration:  c.End - c.Start,
		Score:     total,
		Keywords:  keywords,
	}, nil
}

// SelectTop scores every candidate and returns the best maxClips of them,
// highest score first.
func (s *Scorer) SelectTop(ctx context.Context, src source.FrameSource, candidates []Candidate, transcript []TranscriptSegment, sceneTimes []float64, maxClips int, w Weights) ([]Scored, error) {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		sc, err := s.Score(ctx, src, c, transcript, sceneTimes, w)
		if err != nil {
			return nil, err
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if maxClips > 0 && len(scored) > maxClips {
		scored = scored[:maxClips]
	}

	s.logger.Info("candidates selected",
		slog.Int("scored", len(candidates)),
		slog.Int("selected", len(scored)))

	return scored, nil
}
