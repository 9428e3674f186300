package domain

// actDurationSeconds is the fixed length of one video act, per spec's
// glossary definition of "Act".
const actDurationSeconds = 3

// Act is a 3-second segment of a generated video aligned to a narrative
// section.
type Act struct {
	Index      int     `json:"index"`
	StartS     float64 `json:"start_s"`
	EndS       float64 `json:"end_s"`
	Title      string  `json:"title"`
	VisualHint string  `json:"visual_hint"`
}

// MuxURLs bundles the deterministic URLs derived from a playback id.
type MuxURLs struct {
	Stream      string   `json:"stream"`
	HeroThumb   string   `json:"hero_thumb"`
	GIF         string   `json:"gif"`
	PerActThumb []string `json:"per_act_thumb"`
}

// VideoNarrative is the immutable descriptor of a generated video and its
// act structure, embedded into NarrativePayload under video_narrative. It
// is created once after a successful media-host upload and never rewritten.
type VideoNarrative struct {
	PlaybackID       string   `json:"playback_id"`
	AssetID          string   `json:"asset_id,omitempty"`
	DurationSeconds  float64  `json:"duration_seconds"`
	Acts             []Act    `json:"acts"`
	MuxURLs          MuxURLs  `json:"mux_urls"`
	PromptUsed       string   `json:"prompt_used"`
	TemplateName     string   `json:"template_name"`
	ReusedFromParent bool     `json:"reused_from_parent,omitempty"`
}

// BuildActs constructs the k acts for a video of the given titles/hints,
// enforcing acts[i].start_s == i*3, acts[i].end_s == (i+1)*3 (spec §8
// property 3).
func BuildActs(entries []FourActEntry) []Act {
	acts := make([]Act, 0, len(entries))
	for i, e := range entries {
		acts = append(acts, Act{
			Index:      i,
			StartS:     float64(i * actDurationSeconds),
			EndS:       float64((i + 1) * actDurationSeconds),
			Title:      e.Title,
			VisualHint: e.VisualHint,
		})
	}
	return acts
}

// ActMidpoint returns the thumbnail time for act k: k*3 + 1.5.
func ActMidpoint(k int) float64 {
	return float64(k*actDurationSeconds) + float64(actDurationSeconds)/2
}

// TruncatePrompt truncates a prompt to maxRunes runes, used for the
// mandatory 2000-char video-prompt limit and the stored 500-char
// prompt_used field.
func TruncatePrompt(prompt string, maxRunes int) string {
	r := []rune(prompt)
	if len(r) <= maxRunes {
		return prompt
	}
	return string(r[:maxRunes])
}
