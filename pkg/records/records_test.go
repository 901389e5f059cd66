package records

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yandl/pkg/parser"
)

func TestBuildStandardOnly(t *testing.T) {
	rec := Build(parser.RawPost{
		DirectURL: "https://files.yande.re/jpeg/abc/yande.re%20123%20sky%20clouds.jpg",
		ThumbURL:  "https://yande.re/post/show/123",
	})

	assert.Equal(t, "yande.re 123 sky clouds.jpg", rec.StandardFilename)
	assert.Equal(t, "https://files.yande.re/jpeg/abc/yande.re%20123%20sky%20clouds.jpg", rec.StandardURL)
	assert.False(t, rec.HasQuality())
	assert.Nil(t, rec.Quality)
}

func TestBuildWithQuality(t *testing.T) {
	rec := Build(parser.RawPost{
		DirectURL:  "https://files.yande.re/jpeg/abc/yande.re%20123%20sky.jpg",
		QualityURL: "https://files.yande.re/image/abc/yande.re%20123%20sky.png",
	})

	require.True(t, rec.HasQuality())
	assert.Equal(t, "yande.re 123 sky.png", rec.Quality.Filename)
	assert.Equal(t, "https://files.yande.re/image/abc/yande.re%20123%20sky.png", rec.Quality.URL)
	assert.Equal(t, Variant{Filename: "yande.re 123 sky.jpg", URL: rec.StandardURL}, rec.Standard())
}

func TestBuildAllPreservesOrder(t *testing.T) {
	raws := []parser.RawPost{
		{DirectURL: "https://files.yande.re/jpeg/a/one.jpg"},
		{DirectURL: "https://files.yande.re/jpeg/b/two.jpg"},
		{DirectURL: "https://files.yande.re/jpeg/c/three.jpg"},
	}

	recs := BuildAll(raws)
	require.Len(t, recs, 3)
	assert.Equal(t, "one.jpg", recs[0].StandardFilename)
	assert.Equal(t, "two.jpg", recs[1].StandardFilename)
	assert.Equal(t, "three.jpg", recs[2].StandardFilename)
	assert.Empty(t, BuildAll(nil))
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"plain", "https://files.yande.re/jpeg/a/image.jpg", "image.jpg"},
		{"percent encoded", "https://files.yande.re/jpeg/a/yande.re%20456%20a%20b.jpg", "yande.re 456 a b.jpg"},
		{"encoded query mark", "https://files.yande.re/jpeg/a/what%3F.jpg", "what_.jpg"},
		{"query string", "https://files.yande.re/jpeg/a/image.jpg?v=2", "image.jpg_v=2"},
		{"double encoded", "https://files.yande.re/jpeg/a/a%2520b.jpg", "a b.jpg"},
		{"illegal characters", "https://files.yande.re/jpeg/a/a%3Ab%2Ac%22d%3Ce%3Ef%7Cg.jpg", "abcdefg.jpg"},
		{"invalid escape", "https://files.yande.re/jpeg/a/100%zz.jpg", "100%zz.jpg"},
		{"valid and invalid escapes", "https://files.yande.re/jpeg/a/yande.re%20123%20100%%20cat.jpg", "yande.re 123 100% cat.jpg"},
		{"relative", "/image/abc.jpg", "abc.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromURL(tt.link))
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.jpg", "plain.jpg"},
		{"a%20b", "a b"},
		{"100%%20cat", "100% cat"},
		{"50%", "50%"},
		{"%2", "%2"},
		{"%zz%41", "%zzA"},
		{"%e3%81%82", "\u3042"},
		{"a+b", "a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, unescape(tt.in))
		})
	}
}

func TestFilenameFromURLIsDeterministic(t *testing.T) {
	link := "https://files.yande.re/jpeg/a/yande.re%20789%20%E6%98%9F.jpg"
	first := FilenameFromURL(link)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FilenameFromURL(link))
	}
	assert.Equal(t, "yande.re 789 星.jpg", first)
}

func TestFilenameFromURLFallback(t *testing.T) {
	a := FilenameFromURL("https://files.yande.re/jpeg/a/")
	b := FilenameFromURL("https://files.yande.re/jpeg/b/")

	assert.True(t, strings.HasPrefix(a, "image-"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, FilenameFromURL("https://files.yande.re/jpeg/a/"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", "image.jpg", "image.jpg"},
		{"slashes", `a/b\c.jpg`, "abc.jpg"},
		{"control characters", "a\x00b\x1fc\x7f.jpg", "abc.jpg"},
		{"trailing dots and spaces", "image. . ", "image"},
		{"reserved name", "CON.jpg", "CON_.jpg"},
		{"reserved name lowercase", "lpt1", "lpt1_"},
		{"not reserved", "CONSOLE.jpg", "CONSOLE.jpg"},
		{"only illegal", `<>:"|?*`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("星", 200) + ".jpg"

	got := SanitizeFilename(long)
	assert.LessOrEqual(t, len(got), MaxFilenameBytes)
	assert.True(t, strings.HasSuffix(got, ".jpg"))
	assert.True(t, utf8.ValidString(got))
}

func TestQualityFilename(t *testing.T) {
	assert.Equal(t, "a.png", QualityFilename("a.jpg"))
	assert.Equal(t, "a.b.png", QualityFilename("a.b.jpeg"))
	assert.Equal(t, "noext.png", QualityFilename("noext"))
}
