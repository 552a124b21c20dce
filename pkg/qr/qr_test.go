package qr

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := EncodePNG("ticket-payload-abc123", 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	payload, err := DecodeFrame(img)
	require.NoError(t, err)
	assert.Equal(t, "ticket-payload-abc123", payload)
}

func TestDecodeFrameNoCode(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	_, err := DecodeFrame(blank)
	assert.ErrorIs(t, err, ErrNoCode)
}
