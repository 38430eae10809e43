package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItem_IsValid(t *testing.T) {
	var nilItem *Item
	assert.False(t, nilItem.IsValid())
	assert.False(t, (&Item{Title: "no id"}).IsValid())
	assert.True(t, (&Item{VideoID: "v1"}).IsValid())
}

func TestItem_ThumbnailURL(t *testing.T) {
	item := &Item{VideoID: "abc123"}
	assert.Equal(t, "https://img.youtube.com/vi/abc123/mqdefault.jpg", item.ThumbnailURL())
}
