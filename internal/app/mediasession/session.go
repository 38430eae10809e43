// Package mediasession connects the player to an OS-level media control
// surface such as lock-screen controls.
package mediasession

import (
	"math"

	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/domain/media"
)

// Action names understood by the surface.
const (
	ActionPlay          = "play"
	ActionPause         = "pause"
	ActionPreviousTrack = "previoustrack"
	ActionNextTrack     = "nexttrack"
	ActionSeekTo        = "seekto"
	ActionSeekBackward  = "seekbackward"
	ActionSeekForward   = "seekforward"
)

// Metadata defaults
const (
	DefaultTitle      = "Sleep Audio"
	DefaultArtist     = "YouTube"
	DefaultSeekOffset = 10.0
)

// Artwork is one image offered to the surface.
type Artwork struct {
	Src   string
	Sizes string
	Type  string
}

// Metadata is the now-playing information shown by the surface.
type Metadata struct {
	Title   string
	Artist  string
	Artwork []Artwork
}

// ActionDetails carries the optional arguments of an action.
type ActionDetails struct {
	SeekTime   *float64 `mapstructure:"seekTime"`
	SeekOffset *float64 `mapstructure:"seekOffset"`
}

// Handler receives the raw details of an action.
type Handler func(details map[string]any)

// Surface is the OS media control surface.
type Surface interface {
	SetMetadata(m Metadata)
	SetActionHandler(action string, h Handler)
}

// Controls is what the surface drives.
type Controls interface {
	Play() error
	Pause() error
	Previous() error
	Next() error
	SeekTo(seconds float64) error
	SeekBy(delta float64) error
}

// Session publishes metadata to a surface and forwards its actions.
type Session struct {
	surface Surface
}

// Bind registers action handlers that forward to controls.
func Bind(surface Surface, controls Controls) *Session {
	s := &Session{surface: surface}

	surface.SetActionHandler(ActionPlay, func(map[string]any) {
		logFailure(ActionPlay, controls.Play())
	})
	surface.SetActionHandler(ActionPause, func(map[string]any) {
		logFailure(ActionPause, controls.Pause())
	})
	surface.SetActionHandler(ActionPreviousTrack, func(map[string]any) {
		logFailure(ActionPreviousTrack, controls.Previous())
	})
	surface.SetActionHandler(ActionNextTrack, func(map[string]any) {
		logFailure(ActionNextTrack, controls.Next())
	})
	surface.SetActionHandler(ActionSeekTo, func(raw map[string]any) {
		d := decodeDetails(raw)
		if d.SeekTime == nil || math.IsNaN(*d.SeekTime) {
			return
		}
		logFailure(ActionSeekTo, controls.SeekTo(*d.SeekTime))
	})
	surface.SetActionHandler(ActionSeekBackward, func(raw map[string]any) {
		logFailure(ActionSeekBackward, controls.SeekBy(-seekOffset(decodeDetails(raw))))
	})
	surface.SetActionHandler(ActionSeekForward, func(raw map[string]any) {
		logFailure(ActionSeekForward, controls.SeekBy(seekOffset(decodeDetails(raw))))
	})

	return s
}

// PublishNowPlaying implements playback.NowPlayingPublisher.
func (s *Session) PublishNowPlaying(item media.Item) {
	s.surface.SetMetadata(MetadataFor(item))
}

// MetadataFor builds the surface metadata for an item.
func MetadataFor(item media.Item) Metadata {
	m := Metadata{
		Title:  item.Title,
		Artist: item.Author,
	}
	if m.Title == "" {
		m.Title = DefaultTitle
	}
	if m.Artist == "" {
		m.Artist = DefaultArtist
	}
	if item.IsValid() {
		m.Artwork = []Artwork{{Src: item.ThumbnailURL(), Sizes: "320x180", Type: "image/jpeg"}}
	}
	return m
}

// decodeDetails converts loosely typed details. Unusable values are dropped.
func decodeDetails(raw map[string]any) ActionDetails {
	var d ActionDetails
	if raw == nil {
		return d
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err != nil {
		zlog.Warn().Msgf("mediasession: failed to create decoder: %v", err)
		return ActionDetails{}
	}
	if err := decoder.Decode(raw); err != nil {
		zlog.Debug().Msgf("mediasession: ignoring malformed action details: %v", err)
		return ActionDetails{}
	}
	return d
}

func seekOffset(d ActionDetails) float64 {
	if d.SeekOffset == nil || *d.SeekOffset <= 0 || math.IsNaN(*d.SeekOffset) {
		return DefaultSeekOffset
	}
	return *d.SeekOffset
}

func logFailure(action string, err error) {
	if err != nil {
		zlog.Debug().Msgf("mediasession: %s ignored: %v", action, err)
	}
}
