package mediahost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStreamURL(t *testing.T) {
	assert.Equal(t, "https://stream.mux.com/abc123.m3u8", BuildStreamURL("abc123"))
}

func TestBuildThumbnailURL_Deterministic(t *testing.T) {
	u1 := BuildThumbnailURL("abc123", 4.5, ThumbnailOptions{Width: 640, SmartCrop: true})
	u2 := BuildThumbnailURL("abc123", 4.5, ThumbnailOptions{Width: 640, SmartCrop: true})
	assert.Equal(t, u1, u2)
	assert.Contains(t, u1, "time=4.50")
	assert.Contains(t, u1, "width=640")
	assert.Contains(t, u1, "fit_mode=smartcrop")
}

func TestBuildAnimatedURL(t *testing.T) {
	u := BuildAnimatedURL("abc123", FormatGIF, 0, 12, 320, 15)
	assert.Equal(t, "https://image.mux.com/abc123/animated.gif?start=0.00&end=12.00&width=320&fps=15", u)
}
