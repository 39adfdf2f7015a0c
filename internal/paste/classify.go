package paste

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Classify turns uploaded bytes into a Payload. With asLink the data
// must be UTF-8 and becomes a ShortLink with trailing whitespace
// removed. Otherwise UTF-8 data becomes Text, kept verbatim, and
// anything else becomes Binary.
func Classify(data []byte, asLink bool) (Payload, error) {
	valid := utf8.Valid(data)

	if asLink {
		if !valid {
			return nil, ErrMalformedLink
		}

		return ShortLink{Target: strings.TrimRightFunc(string(data), unicode.IsSpace)}, nil
	}

	if valid {
		return Text{Content: string(data)}, nil
	}

	return Binary{Data: data}, nil
}
