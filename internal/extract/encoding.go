package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
)

// candidate pairs a codec with its reporting name. Order matters: first
// successful decode wins.
type candidate struct {
	name string
	enc  encoding.Encoding
}

// candidates mirrors the legacy upload chain: Unicode first, then the two
// East-Asian codecs, then Latin-1 as the byte-transparent fallback. EUC-KR in
// x/text uses the extended CP949 table, so it covers both legacy Korean
// labels.
var candidates = []candidate{
	{"euc-kr", korean.EUCKR},
	{"shift-jis", japanese.ShiftJIS},
	{"latin-1", charmap.ISO8859_1},
}

// decodeText returns the first successful decode of data. UTF-8 input passes
// through untouched; legacy codecs are rejected when they produce replacement
// runes, since x/text decoders substitute rather than fail on invalid bytes.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, c := range candidates {
		decoded, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(decoded)
		if strings.ContainsRune(text, utf8.RuneError) {
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: tried utf-8, euc-kr, shift-jis, latin-1", ErrUnknownEncoding)
}
