package encoding

import (
	"fmt"
	"unicode/utf8"

	textencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// Charset names accepted by Decode.
const (
	CharsetUTF8        = "utf-8"
	CharsetUTF16       = "utf-16"
	CharsetUTF16LE     = "utf-16le"
	CharsetUTF16BE     = "utf-16be"
	CharsetLatin1      = "latin-1"
	CharsetWindows1252 = "windows-1252"
)

// Decode converts raw input bytes into UTF-8 text. An explicit charset
// name selects the decoder; the empty name auto-detects by BOM, accepts
// valid UTF-8, and falls back to Windows-1252 so that legacy single-byte
// input never fails to decode. The second return value names the
// charset actually applied.
func Decode(data []byte, charset string) (string, string, error) {
	switch charset {
	case "":
		return autoDecode(data)
	case CharsetUTF8:
		data = stripUTF8BOM(data)
		if !utf8.Valid(data) {
			return "", "", fmt.Errorf("input is not valid UTF-8")
		}
		return string(data), CharsetUTF8, nil
	case CharsetUTF16:
		return decodeUTF16(data, unicode.LittleEndian, unicode.ExpectBOM)
	case CharsetUTF16LE:
		return decodeUTF16(data, unicode.LittleEndian, unicode.IgnoreBOM)
	case CharsetUTF16BE:
		return decodeUTF16(data, unicode.BigEndian, unicode.IgnoreBOM)
	case CharsetLatin1:
		return decodeCharmap(data, charmap.ISO8859_1, CharsetLatin1)
	case CharsetWindows1252:
		return decodeCharmap(data, charmap.Windows1252, CharsetWindows1252)
	default:
		return "", "", fmt.Errorf("unknown charset %q", charset)
	}
}

func autoDecode(data []byte) (string, string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), CharsetUTF8, nil
	}
	if len(data) >= 2 {
		switch {
		case data[0] == 0xFF && data[1] == 0xFE:
			return decodeUTF16(data, unicode.LittleEndian, unicode.ExpectBOM)
		case data[0] == 0xFE && data[1] == 0xFF:
			return decodeUTF16(data, unicode.BigEndian, unicode.ExpectBOM)
		}
	}
	if utf8.Valid(data) {
		return string(data), CharsetUTF8, nil
	}
	return decodeCharmap(data, charmap.Windows1252, CharsetWindows1252)
}

func decodeUTF16(data []byte, endianness unicode.Endianness, bom unicode.BOMPolicy) (string, string, error) {
	decoder := unicode.UTF16(endianness, bom).NewDecoder()
	out, err := decoder.Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("utf-16 decode: %w", err)
	}
	name := CharsetUTF16LE
	if endianness == unicode.BigEndian {
		name = CharsetUTF16BE
	}
	return NormalizeNFC(string(out)), name, nil
}

func decodeCharmap(data []byte, cm *charmap.Charmap, name string) (string, string, error) {
	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("%s decode: %w", name, err)
	}
	return NormalizeNFC(string(out)), name, nil
}

// Encode converts UTF-8 text into the named output charset. The empty
// name and "utf-8" pass the text through unchanged; "utf-16" writes a
// little-endian BOM. Runes the target charset cannot represent are an
// error, not a silent substitution.
func Encode(text, charset string) ([]byte, error) {
	switch charset {
	case "", CharsetUTF8:
		return []byte(text), nil
	case CharsetUTF16:
		return encodeWith(text, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), CharsetUTF16)
	case CharsetUTF16LE:
		return encodeWith(text, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder(), CharsetUTF16LE)
	case CharsetUTF16BE:
		return encodeWith(text, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder(), CharsetUTF16BE)
	case CharsetLatin1:
		return encodeWith(text, charmap.ISO8859_1.NewEncoder(), CharsetLatin1)
	case CharsetWindows1252:
		return encodeWith(text, charmap.Windows1252.NewEncoder(), CharsetWindows1252)
	default:
		return nil, fmt.Errorf("unknown charset %q", charset)
	}
}

func encodeWith(text string, enc *textencoding.Encoder, name string) ([]byte, error) {
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", name, err)
	}
	return out, nil
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// NormalizeNFC returns the text in Unicode NFC form. Decoded legacy
// input is normalized so that equivalent sequences compare equal after
// conversion.
func NormalizeNFC(s string) string {
	return norm.NFC.String(s)
}
