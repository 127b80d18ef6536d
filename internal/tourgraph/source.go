package tourgraph

import (
	"strings"

	"tourcms/internal/models"
)

// SourceKind tags a MediaSource variant.
type SourceKind uint8

const (
	// SourceMedia is a file attached through the media library.
	SourceMedia SourceKind = iota + 1
	// SourceLegacyFile is the sphere's direct sphere_file URL.
	SourceLegacyFile
	// SourceLegacyImage is the sphere's direct sphere_image URL.
	SourceLegacyImage
	// SourcePlaceholder is the generated stand-in panorama.
	SourcePlaceholder
)

func (k SourceKind) String() string {
	switch k {
	case SourceMedia:
		return "media"
	case SourceLegacyFile:
		return "sphere_file"
	case SourceLegacyImage:
		return "sphere_image"
	case SourcePlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// MediaSource is one candidate panorama reference for a sphere.
// ContentType is only meaningful for SourceMedia.
type MediaSource struct {
	Kind        SourceKind
	URL         string
	ContentType string
}

// IsImage reports whether a media-library source declares an image MIME type.
func (s MediaSource) IsImage() bool {
	return s.Kind == SourceMedia && strings.HasPrefix(s.ContentType, "image/")
}

// SourcesOf lists a sphere's candidates: attached media in order, then the
// legacy sphere_file and sphere_image fields. Blank URLs are skipped.
func SourcesOf(s *models.Sphere) []MediaSource {
	var out []MediaSource
	for _, m := range s.Media {
		if strings.TrimSpace(m.URL) == "" {
			continue
		}
		out = append(out, MediaSource{Kind: SourceMedia, URL: m.URL, ContentType: m.ContentType})
	}
	if s.SphereFile != nil && strings.TrimSpace(*s.SphereFile) != "" {
		out = append(out, MediaSource{Kind: SourceLegacyFile, URL: *s.SphereFile})
	}
	if s.SphereImage != nil && strings.TrimSpace(*s.SphereImage) != "" {
		out = append(out, MediaSource{Kind: SourceLegacyImage, URL: *s.SphereImage})
	}
	return out
}

// resolveOrder is the fallback chain. Each step picks the first matching source.
var resolveOrder = []func(MediaSource) bool{
	MediaSource.IsImage,
	func(s MediaSource) bool { return s.Kind == SourceMedia },
	func(s MediaSource) bool { return s.Kind == SourceLegacyFile },
	func(s MediaSource) bool { return s.Kind == SourceLegacyImage },
}

// Resolve picks the panorama for a set of candidates: the first image
// media, else the first media of any type, else sphere_file, else
// sphere_image. It returns false when nothing resolves.
func Resolve(sources []MediaSource) (MediaSource, bool) {
	for _, match := range resolveOrder {
		for _, s := range sources {
			if match(s) {
				return s, true
			}
		}
	}
	return MediaSource{}, false
}

// ResolveSphere is Resolve(SourcesOf(s)).
func ResolveSphere(s *models.Sphere) (MediaSource, bool) {
	return Resolve(SourcesOf(s))
}
