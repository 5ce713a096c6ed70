package procrun

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Well-known encoding names accepted for CommandSpec.FallbackEncoding.
// Any WHATWG label understood by htmlindex is accepted as well.
const (
	EncodingUTF8    = "utf8"
	EncodingCP1252  = "cp1252"
	EncodingUTF16LE = "utf16le"
	EncodingUTF16BE = "utf16be"
	EncodingAuto    = "auto"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// resolveEncoding maps a user-facing encoding name to a golang.org/x/text Encoding.
// A nil Encoding with a nil error means UTF-8.
func resolveEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, fmt.Errorf("no fallback encoding configured")
	case EncodingUTF8, "utf-8":
		return nil, nil
	case EncodingCP1252, "windows-1252", "latin1", "iso-8859-1":
		return charmap.Windows1252, nil
	case EncodingUTF16LE, "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case EncodingUTF16BE, "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case EncodingAuto:
		return nil, fmt.Errorf("encoding %q needs the data to detect from", name)
	}

	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding: %q", name)
	}
	if e == unicode.UTF8 {
		return nil, nil
	}
	return e, nil
}

// detectBOMEncoding looks at the first bytes for a UTF-16 byte order mark.
// It returns nil when no UTF-16 BOM is present.
func detectBOMEncoding(data []byte) encoding.Encoding {
	if len(data) >= 2 {
		// UTF-16 LE BOM: FF FE
		if data[0] == 0xFF && data[1] == 0xFE {
			return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		}
		// UTF-16 BE BOM: FE FF
		if data[0] == 0xFE && data[1] == 0xFF {
			return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
		}
	}
	return nil
}

// decodeUTF8 validates data as UTF-8. A UTF-8 byte order mark is dropped;
// any other invalid byte is an error.
func decodeUTF8(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if _, _, err := transform.Bytes(encoding.UTF8Validator, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeWith decodes data using the named encoding. UTF-8 is validated
// strictly rather than replacing bad bytes. "auto" picks UTF-16 from a
// byte order mark and fails when there is none.
func decodeWith(data []byte, name string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(name), EncodingAuto) {
		e := detectBOMEncoding(data)
		if e == nil {
			return "", fmt.Errorf("no UTF-16 byte order mark to detect an encoding from")
		}
		out, err := e.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	e, err := resolveEncoding(name)
	if err != nil {
		return "", err
	}
	if e == nil {
		return decodeUTF8(data)
	}
	out, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Decode turns captured process output into text. UTF-8 is tried first;
// on failure the fallback encoding is used. Line endings are normalised
// to "\n".
func Decode(data []byte, fallback string) (string, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		var ferr error
		text, ferr = decodeWith(data, fallback)
		if ferr != nil {
			return "", fmt.Errorf("output is not valid UTF-8 (%v) and fallback %q failed: %w", err, fallback, ferr)
		}
	}
	return normalizeNewlines(text), nil
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
