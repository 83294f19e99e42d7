package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/otiai10/gosseract/v2"
	xdraw "golang.org/x/image/draw"
)

// plateCharset restricts OCR to the characters a plate can carry.
const plateCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-"

// cropScale upsamples the plate crop before OCR; small crops read badly at
// native resolution.
const cropScale = 2

// TesseractRecognizer reads text fragments out of plate crops with a
// Tesseract client. It implements Recognizer. The client is stateful and
// not safe for concurrent use.
type TesseractRecognizer struct {
	client *gosseract.Client
}

// NewTesseractRecognizer configures a Tesseract client for single-line
// plate reading with the plate character allow-list.
func NewTesseractRecognizer() (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language: %w", err)
	}
	if err := client.SetWhitelist(plateCharset); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR segmentation mode: %w", err)
	}
	return &TesseractRecognizer{client: client}, nil
}

// Read preprocesses the crop (upscale, grayscale, contrast stretch) and
// returns one TextFragment per recognized word, with the word box geometry
// the segmenter needs.
func (r *TesseractRecognizer) Read(crop image.Image) ([]TextFragment, error) {
	prepared := prepareCrop(crop)

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set OCR image: %w", err)
	}

	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("read OCR boxes: %w", err)
	}

	fragments := make([]TextFragment, 0, len(boxes))
	for _, box := range boxes {
		fragments = append(fragments, TextFragment{
			Text:       box.Word,
			Confidence: box.Confidence / 100,
			Left:       float64(box.Box.Min.X),
			Height:     float64(box.Box.Dy()),
		})
	}
	return fragments, nil
}

// Close releases the Tesseract client.
func (r *TesseractRecognizer) Close() error {
	return r.client.Close()
}

// prepareCrop converts the crop to an upscaled, histogram-equalized
// grayscale image.
func prepareCrop(crop image.Image) *image.Gray {
	bounds := crop.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), crop, bounds.Min, draw.Src)

	scaled := image.NewGray(image.Rect(0, 0, bounds.Dx()*cropScale, bounds.Dy()*cropScale))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)

	equalize(scaled)
	return scaled
}

// equalize applies histogram equalization in place, spreading the crop's
// contrast over the full intensity range.
func equalize(img *image.Gray) {
	total := len(img.Pix)
	if total == 0 {
		return
	}

	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}

	var cdf [256]int
	sum := 0
	for i, c := range hist {
		sum += c
		cdf[i] = sum
	}

	cdfMin := 0
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	if cdfMin == total {
		return
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8((cdf[i] - cdfMin) * 255 / (total - cdfMin))
	}
	for i, v := range img.Pix {
		img.Pix[i] = lut[v]
	}
}
