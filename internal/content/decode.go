package content

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const byteOrderMark = "\uFEFF"

type Decoder struct {
	fallback encoding.Encoding
}

// NewDecoder returns a decoder that uses the WHATWG encoding named by label
// when the charset of a non UTF-8 body cannot be determined. Unknown or empty
// labels keep the detector's own guess.
func NewDecoder(label string) Decoder {
	var fallback encoding.Encoding
	if label != "" {
		if e, err := htmlindex.Get(label); err == nil {
			fallback = e
		}
	}
	return Decoder{fallback: fallback}
}

// Decode converts body to UTF-8 using the Content-Type header, BOM and meta
// tags. It never fails: undecodable bytes become U+FFFD.
func Decode(body []byte, contentType string) string {
	return Decoder{}.Decode(body, contentType)
}

func (d Decoder) Decode(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}

	e, _, certain := charset.DetermineEncoding(body, contentType)
	if !certain {
		if utf8.Valid(body) {
			return strings.TrimPrefix(string(body), byteOrderMark)
		}
		if d.fallback != nil {
			e = d.fallback
		}
	}

	decoded, err := e.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD")
	}
	return strings.TrimPrefix(string(decoded), byteOrderMark)
}
