// Package qr holds the QR concerns of the service: signing ticket payloads,
// rendering them as PNG, and decoding camera frames back into payloads.
package qr

import (
	"errors"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	qrencode "github.com/skip2/go-qrcode"
)

// ErrNoCode means the frame contained no decodable QR code. The scanning
// loop treats it as "keep sampling", not as a failure.
var ErrNoCode = errors.New("no qr code found in frame")

const defaultPNGSize = 256

// EncodePNG renders a payload as a QR code PNG.
func EncodePNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultPNGSize
	}
	return qrencode.Encode(payload, qrencode.Medium, size)
}

// DecodeFrame extracts a QR payload from a single video frame.
func DecodeFrame(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", ErrNoCode
	}

	reader := qrcode.NewQRCodeReader()
	result, err := reader.Decode(bmp, nil)
	if err != nil {
		return "", ErrNoCode
	}
	return result.GetText(), nil
}
