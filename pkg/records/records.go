package records

import (
	"path"
	"strings"

	"yandl/pkg/parser"
)

// QualityExtension is the extension of the quality variant
const QualityExtension = ".png"

// Variant is one downloadable form of an image
type Variant struct {
	Filename string
	URL      string
}

// ImageRecord describes one post. Quality is nil when the post has no
// quality variant.
type ImageRecord struct {
	StandardFilename string
	StandardURL      string
	Quality          *Variant
}

// HasQuality reports whether the record has a quality variant
func (r ImageRecord) HasQuality() bool {
	return r.Quality != nil
}

// Standard returns the standard variant
func (r ImageRecord) Standard() Variant {
	return Variant{Filename: r.StandardFilename, URL: r.StandardURL}
}

// Build converts a raw post into an ImageRecord
func Build(raw parser.RawPost) ImageRecord {
	rec := ImageRecord{
		StandardFilename: FilenameFromURL(raw.DirectURL),
		StandardURL:      raw.DirectURL,
	}

	if raw.HasQuality() {
		rec.Quality = &Variant{
			Filename: QualityFilename(rec.StandardFilename),
			URL:      raw.QualityURL,
		}
	}
	return rec
}

// BuildAll converts every raw post, preserving order
func BuildAll(raws []parser.RawPost) []ImageRecord {
	out := make([]ImageRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Build(raw))
	}
	return out
}

// QualityFilename swaps the extension of a standard filename for the quality
// extension.
func QualityFilename(standard string) string {
	ext := path.Ext(standard)
	return strings.TrimSuffix(standard, ext) + QualityExtension
}
