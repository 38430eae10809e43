// Package media provides the media item reported by the player widget.
package media

import "fmt"

// Item is the metadata of the item currently loaded in the widget.
type Item struct {
	VideoID string // External media id
	Title   string // Display title
	Author  string // Channel or author name
}

// IsValid reports whether the widget returned a usable media id.
func (i *Item) IsValid() bool {
	return i != nil && i.VideoID != ""
}

// ThumbnailURL returns the medium-quality thumbnail for the item.
func (i *Item) ThumbnailURL() string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", i.VideoID)
}
