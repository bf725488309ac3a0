package validation

import (
	"bufio"
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"
)

// EncodingFinding describes one suspicious spot in a text asset.
type EncodingFinding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Kind    string `json:"kind"` // "invalid_utf8" or "mojibake"
	Excerpt string `json:"excerpt"`
}

// Error returns the finding as a human-readable message.
func (f EncodingFinding) String() string {
	return fmt.Sprintf("%s:%d:%d: %s near %q", f.File, f.Line, f.Column, f.Kind, f.Excerpt)
}

// EncodingError reports that a text asset failed encoding validation.
type EncodingError struct {
	File     string
	Findings []EncodingFinding
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	if len(e.Findings) == 1 {
		return fmt.Sprintf("encoding validation failed for %s: %s", e.File, e.Findings[0])
	}
	return fmt.Sprintf("encoding validation failed for %s: %d findings, first: %s", e.File, len(e.Findings), e.Findings[0])
}

// ValidateUTF8File checks that a text file is valid UTF-8 and free of
// mojibake artifacts. All text inputs are required to be UTF-8; a file that
// decodes but carries double-encoding damage is rejected the same way, since
// downstream reports would silently propagate the corruption.
func ValidateUTF8File(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var findings []EncodingFinding
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if !utf8.Valid(line) {
			findings = append(findings, EncodingFinding{
				File:    path,
				Line:    lineNo,
				Column:  firstInvalidOffset(line) + 1,
				Kind:    "invalid_utf8",
				Excerpt: excerpt(line, firstInvalidOffset(line)),
			})
			continue
		}
		findings = append(findings, scanLineForMojibake(path, lineNo, string(line))...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if len(findings) > 0 {
		return &EncodingError{File: path, Findings: findings}
	}
	return nil
}

// DetectMojibake scans a UTF-8 string for double-encoding artifacts and
// returns the offsets (in runes) where they occur. Two patterns are covered:
//
//   - UTF-8 bytes re-decoded as Latin-1/Windows-1252: accented characters
//     become pairs led by U+00C2/U+00C3 ("gestión" -> "gestiÃ³n").
//   - UTF-8 bytes re-decoded as a CJK double-byte encoding: an ideograph
//     appears wedged between ASCII letters ("gestión" -> "gesti贸n").
func DetectMojibake(s string) []int {
	runes := []rune(s)
	var hits []int
	for i, r := range runes {
		switch {
		case r == 0x00C3 || r == 0x00C2:
			if i+1 < len(runes) && isLatin1Continuation(runes[i+1]) {
				hits = append(hits, i)
			}
		case unicode.Is(unicode.Han, r):
			prevASCII := i > 0 && isASCIILetter(runes[i-1])
			nextASCII := i+1 < len(runes) && isASCIILetter(runes[i+1])
			if prevASCII && nextASCII {
				hits = append(hits, i)
			}
		case r == utf8.RuneError:
			hits = append(hits, i)
		}
	}
	return hits
}

func scanLineForMojibake(path string, lineNo int, line string) []EncodingFinding {
	var findings []EncodingFinding
	for _, pos := range DetectMojibake(line) {
		runes := []rune(line)
		start := pos - 8
		if start < 0 {
			start = 0
		}
		end := pos + 8
		if end > len(runes) {
			end = len(runes)
		}
		findings = append(findings, EncodingFinding{
			File:    path,
			Line:    lineNo,
			Column:  pos + 1,
			Kind:    "mojibake",
			Excerpt: string(runes[start:end]),
		})
	}
	return findings
}

// isLatin1Continuation reports whether the rune is where a UTF-8 continuation
// byte lands after a Latin-1 round trip.
func isLatin1Continuation(r rune) bool {
	return r >= 0x0080 && r <= 0x00BF
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func firstInvalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return 0
}

func excerpt(b []byte, at int) string {
	start := at - 8
	if start < 0 {
		start = 0
	}
	end := at + 8
	if end > len(b) {
		end = len(b)
	}
	return string(b[start:end])
}
