package procrun

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestDecode_UTF8Passthrough(t *testing.T) {
	input := "hello world"
	got, err := Decode([]byte(input), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, "plain"...)
	got, err := Decode(data, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "plain" {
		t.Errorf("got %q, want %q", got, "plain")
	}
}

func TestDecode_UTF16WithBOMViaFallback(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fallback string
	}{
		// BOM + "Hi"
		{"auto little endian", []byte{0xFF, 0xFE, 0x48, 0x00, 0x69, 0x00}, "auto"},
		{"auto big endian", []byte{0xFE, 0xFF, 0x00, 0x48, 0x00, 0x69}, "auto"},
		{"utf16le", []byte{0xFF, 0xFE, 0x48, 0x00, 0x69, 0x00}, "utf16le"},
		{"utf16be", []byte{0xFE, 0xFF, 0x00, 0x48, 0x00, 0x69}, "utf-16be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.fallback)
			if err != nil {
				t.Fatal(err)
			}
			if got != "Hi" {
				t.Errorf("got %q, want %q", got, "Hi")
			}
		})
	}
}

func TestDecode_UTF16BOMBytesUseConfiguredFallback(t *testing.T) {
	// FF FE is not UTF-8, so the bytes go to the fallback rather than
	// being guessed as UTF-16.
	got, err := Decode([]byte{0xFF, 0xFE, 0x41}, "cp1252")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ÿþA" {
		t.Errorf("got %q, want %q", got, "ÿþA")
	}

	if _, err := Decode([]byte{0xFF, 0xFE, 0x41}, ""); err == nil {
		t.Error("expected error without a fallback")
	}
}

func TestDecode_AutoWithoutBOM(t *testing.T) {
	if _, err := Decode([]byte{0x63, 0x61, 0x66, 0xe9}, "auto"); err == nil {
		t.Error("expected error when auto has no byte order mark")
	}
}

func TestDecode_FallbackCP1252(t *testing.T) {
	// "café" in CP1252: 'c' 'a' 'f' 0xe9, which is invalid UTF-8.
	data := []byte{0x63, 0x61, 0x66, 0xe9}
	got, err := Decode(data, "cp1252")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "café" {
		t.Errorf("got %q, want %q", got, "café")
	}
}

func TestDecode_FallbackWHATWGLabel(t *testing.T) {
	// "日本" in Shift_JIS.
	data := []byte{0x93, 0xfa, 0x96, 0x7b}
	got, err := Decode(data, "shift_jis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "日本" {
		t.Errorf("got %q, want %q", got, "日本")
	}
}

func TestDecode_BothEncodingsFail(t *testing.T) {
	invalid := []byte{0x66, 0xff, 0xfe, 0x6f}
	tests := []struct {
		name     string
		fallback string
	}{
		{"no fallback", ""},
		{"utf8 fallback is strict", "utf-8"},
		{"unknown fallback", "ebcdic-xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(invalid, tt.fallback); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestDecode_NormalizesNewlines(t *testing.T) {
	got, err := Decode([]byte("a\r\nb\rc\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb\nc\n" {
		t.Errorf("got %q, want %q", got, "a\nb\nc\n")
	}
}

func TestResolveEncoding_Aliases(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"windows-1252", "cp1252"},
		{"latin1", "cp1252"},
		{"iso-8859-1", "cp1252"},
		{"utf-16le", "utf16le"},
		{"utf-16be", "utf16be"},
		{"utf-8", "utf8"},
		{"UTF8", "utf8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := resolveEncoding(tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch tt.want {
			case "utf8":
				if enc != nil {
					t.Error("expected nil for UTF-8")
				}
			case "cp1252":
				if enc != charmap.Windows1252 {
					t.Error("expected Windows1252")
				}
			default:
				if enc == nil {
					t.Errorf("expected non-nil encoding for %s", tt.want)
				}
			}
		})
	}
}

func TestResolveEncoding_Empty(t *testing.T) {
	if _, err := resolveEncoding(""); err == nil {
		t.Error("expected error for empty encoding name")
	}
}
