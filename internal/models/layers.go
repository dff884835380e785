package models

// Every layer record owns a StartTime/EndTime window (seconds into the
// timeline) establishing when it is active. Windows of sibling records are
// independently editable; overlap is legal and expected.

// VideoClip is one segment of the source video placed on the timeline.
type VideoClip struct {
	ID        string  `json:"id"`
	SourceURL string  `json:"source_url"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
	Speed     float64 `json:"speed,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
}

// TextOverlay is a styled text element rendered over the video.
type TextOverlay struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	FontFamily string   `json:"font_family,omitempty"`
	FontSize   float64  `json:"font_size,omitempty"`
	Color      string   `json:"color,omitempty"`
	Position   Position `json:"position"`
}

// AudioLayer is an additional audio track mixed into the timeline.
type AudioLayer struct {
	ID        string  `json:"id"`
	SourceURL string  `json:"source_url"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Volume    float64 `json:"volume"`
	FadeIn    float64 `json:"fade_in,omitempty"`
	FadeOut   float64 `json:"fade_out,omitempty"`
}

// EffectLayer is a visual effect (blur, zoom, glitch, ...) applied during
// its window. Params carries effect-specific settings.
type EffectLayer struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	StartTime float64                `json:"start_time"`
	EndTime   float64                `json:"end_time"`
	Intensity float64                `json:"intensity"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// CaptionLayer is a subtitle-style caption, typically transcript-derived.
type CaptionLayer struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Speaker   string  `json:"speaker,omitempty"`
}

// DrawingLayer is a freehand annotation stroke.
type DrawingLayer struct {
	ID          string     `json:"id"`
	StartTime   float64    `json:"start_time"`
	EndTime     float64    `json:"end_time"`
	Color       string     `json:"color"`
	StrokeWidth float64    `json:"stroke_width"`
	Points      []Position `json:"points"`
}

// VideoOverlay is a secondary video composited over the main track.
type VideoOverlay struct {
	ID        string   `json:"id"`
	SourceURL string   `json:"source_url"`
	StartTime float64  `json:"start_time"`
	EndTime   float64  `json:"end_time"`
	Position  Position `json:"position"`
	Scale     float64  `json:"scale,omitempty"`
	Opacity   float64  `json:"opacity,omitempty"`
}
