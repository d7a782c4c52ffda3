// Package ocr implements the OCR adapter (C4): bytes in, (text,
// confidence) out, grounded on original_source/services/ocr_service.py
// (image_to_data confidence averaging over positive-confidence words,
// pdf2image per-page loop) translated onto gosseract/go-fitz. Pages are
// processed in a plain sequential loop, matching both
// extract_text_from_pdf's `for i, image in enumerate(images):` and
// spec.md §5's "no intra-message parallelism is required or permitted."
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"github.com/eduflow/certflow/internal/config"
)

// Adapter processes uploaded certificate bytes into extracted text and a
// mean confidence score. Adapter instances hold configuration only; no
// mutable state crosses a ProcessFile call (§5).
type Adapter struct {
	languages string
}

// New builds an Adapter from configuration.
func New(cfg config.Config) *Adapter {
	return &Adapter{languages: cfg.OCR.Languages}
}

// ProcessFile extracts text from a single file's bytes, dispatching on
// extension: "pdf" rasterizes and fans out per page (§4.3 step 4); any
// other extension is treated as a single image.
func (a *Adapter) ProcessFile(ctx context.Context, data []byte, extension string) (string, float64, error) {
	if strings.EqualFold(extension, "pdf") {
		return a.processPDF(ctx, data)
	}
	return a.processImageBytes(data)
}

// processImageBytes runs one Tesseract pass over the full image and
// averages the confidence of every non-empty, positive-confidence word,
// matching ocr_service.py's extract_text_from_image.
func (a *Adapter) processImageBytes(data []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(a.languages, "+")...); err != nil {
		return "", 0, fmt.Errorf("setting tesseract languages: %w", err)
	}
	// --oem 3 --psm 6 per spec.md §4.8; gosseract exposes oem via
	// NewClient's default (LSTM+legacy) and psm via SetPageSegMode.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", 0, fmt.Errorf("setting tesseract psm: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", 0, fmt.Errorf("loading image into tesseract: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", 0, fmt.Errorf("running tesseract: %w", err)
	}

	var words []string
	var confidences []float64
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		words = append(words, word)
		if b.Confidence > 0 {
			confidences = append(confidences, b.Confidence)
		}
	}

	text := strings.Join(words, " ")
	return text, mean(confidences), nil
}

// processPDF rasterizes every page with go-fitz and OCRs them in page
// order, one at a time. Results are concatenated with a space separator
// (§4.3 step 4).
func (a *Adapter) processPDF(ctx context.Context, data []byte) (string, float64, error) {
	tmp, err := os.CreateTemp("", "certflow-*.pdf")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file for pdf rasterization: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		return "", 0, fmt.Errorf("writing temp pdf: %w", err)
	}

	doc, err := fitz.New(tmp.Name())
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	var pageImages [][]byte
	for i := 0; i < pageCount; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return "", 0, fmt.Errorf("rasterizing page %d: %w", i, err)
		}
		buf, err := encodePNG(img)
		if err != nil {
			return "", 0, fmt.Errorf("encoding page %d: %w", i, err)
		}
		pageImages = append(pageImages, buf)
	}

	texts := make([]string, pageCount)
	confidences := make([]float64, pageCount)

	for i, img := range pageImages {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		text, confidence, err := a.processImageBytes(img)
		if err != nil {
			return "", 0, fmt.Errorf("ocr on page %d: %w", i, err)
		}
		texts[i] = text
		confidences[i] = confidence
	}

	return strings.Join(texts, " "), mean(confidences), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
