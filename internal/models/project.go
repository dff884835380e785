package models

import (
	"time"

	"github.com/google/uuid"
)

// Dimensions is the pixel size of the source video.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Position is a point in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Adjustments is the fixed record of global color/tone parameters.
// The zero value means "no adjustment" for every parameter.
type Adjustments struct {
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Exposure    float64 `json:"exposure"`
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
	Highlights  float64 `json:"highlights"`
	Shadows     float64 `json:"shadows"`
	Sharpness   float64 `json:"sharpness"`
	Vignette    float64 `json:"vignette"`
}

// ProjectDocument is the serialized-document part of a project row: every
// field of EditorProject except the top-level columns (id, title, thumbnail,
// created_at, updated_at). Layer slices are ordered — order is composition
// order. Time windows may overlap freely (stacked text + effect is normal).
type ProjectDocument struct {
	VideoURL        string      `json:"video_url"`
	VideoDuration   float64     `json:"video_duration"`
	VideoDimensions *Dimensions `json:"video_dimensions,omitempty"`

	VideoClips    []VideoClip    `json:"video_clips"`
	TextOverlays  []TextOverlay  `json:"text_overlays"`
	AudioLayers   []AudioLayer   `json:"audio_layers"`
	EffectLayers  []EffectLayer  `json:"effect_layers"`
	CaptionLayers []CaptionLayer `json:"caption_layers"`
	DrawingLayers []DrawingLayer `json:"drawing_layers"`
	VideoOverlays []VideoOverlay `json:"video_overlays"`

	Adjustments         Adjustments `json:"adjustments"`
	SelectedAspectRatio string      `json:"selected_aspect_ratio"`
	BackgroundColor     string      `json:"background_color"`
	BackgroundBlur      float64     `json:"background_blur"`
	BackgroundImage     string      `json:"background_image,omitempty"`
	VideoPosition       Position    `json:"video_position"`
}

// EditorProject is the complete serializable state of one editing session.
type EditorProject struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectDocument
}

// NewProject returns a fresh project with a client-generated id, both
// timestamps set to now, empty edit layers and neutral adjustments.
func NewProject(title string) *EditorProject {
	now := time.Now().UTC()
	p := &EditorProject{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.ProjectDocument = EmptyDocument()
	return p
}

// EmptyDocument returns a document with all layer slices initialized to empty
// (not nil) so a freshly created project serializes as [] rather than null.
func EmptyDocument() ProjectDocument {
	return ProjectDocument{
		VideoClips:          []VideoClip{},
		TextOverlays:        []TextOverlay{},
		AudioLayers:         []AudioLayer{},
		EffectLayers:        []EffectLayer{},
		CaptionLayers:       []CaptionLayer{},
		DrawingLayers:       []DrawingLayer{},
		VideoOverlays:       []VideoOverlay{},
		SelectedAspectRatio: "16:9",
	}
}

// Clone returns a deep copy of the project. Layer slices, nested maps and
// point slices are copied, so mutating the clone never aliases the source.
func (p *EditorProject) Clone() *EditorProject {
	c := *p
	c.ProjectDocument = p.ProjectDocument.clone()
	return &c
}

func (d ProjectDocument) clone() ProjectDocument {
	c := d
	if d.VideoDimensions != nil {
		dim := *d.VideoDimensions
		c.VideoDimensions = &dim
	}
	c.VideoClips = append([]VideoClip(nil), d.VideoClips...)
	c.TextOverlays = append([]TextOverlay(nil), d.TextOverlays...)
	c.AudioLayers = append([]AudioLayer(nil), d.AudioLayers...)
	c.CaptionLayers = append([]CaptionLayer(nil), d.CaptionLayers...)
	c.VideoOverlays = append([]VideoOverlay(nil), d.VideoOverlays...)

	c.EffectLayers = make([]EffectLayer, len(d.EffectLayers))
	for i, e := range d.EffectLayers {
		c.EffectLayers[i] = e
		if e.Params != nil {
			params := make(map[string]interface{}, len(e.Params))
			for k, v := range e.Params {
				params[k] = v
			}
			c.EffectLayers[i].Params = params
		}
	}

	c.DrawingLayers = make([]DrawingLayer, len(d.DrawingLayers))
	for i, l := range d.DrawingLayers {
		c.DrawingLayers[i] = l
		c.DrawingLayers[i].Points = append([]Position(nil), l.Points...)
	}

	return c
}
