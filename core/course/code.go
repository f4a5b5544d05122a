package course

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	codePrefix     = "TEACH"
	codeSeparator  = "-"
	codeSegmentLen = 4
)

var (
	// errors
	ErrBadCodeFormat = errors.New("invalid teacher code")
	ErrCodeNotFound  = errors.New("no course matches this teacher code")
)

// TeacherCode derives the shareable co-teacher join code for a course:
// "TEACH-" + upper(first 4 runes of the name) + "-" + upper(first 4 runes
// of the id). The code is never stored; issuance and validation both
// recompute it. Codes are not globally unique: two courses whose names and
// ids share these prefixes derive the same code, and the first match in
// query order wins on join.
func TeacherCode(c Course) string {
	return codePrefix + codeSeparator + codeSegment(c.Name) + codeSeparator + codeSegment(c.ID)
}

// codeSegment upper-cases the first 4 runes verbatim: whitespace and
// special characters are kept, shorter inputs yield shorter segments.
func codeSegment(s string) string {
	r := []rune(s)
	if len(r) > codeSegmentLen {
		r = r[:codeSegmentLen]
	}
	return strings.ToUpper(string(r))
}

// checkTeacherCode rejects anything that does not split into exactly
// three "-" segments with the literal TEACH prefix. This runs before any
// course is considered.
func checkTeacherCode(code string) error {
	parts := strings.Split(code, codeSeparator)
	if len(parts) != 3 || parts[0] != codePrefix {
		return ErrBadCodeFormat
	}
	return nil
}

// MatchTeacherCode recovers the course a submitted code refers to by
// re-deriving the code of every candidate and accepting the first exact
// match. A structural failure returns ErrBadCodeFormat without scanning;
// a well-formed code matching no candidate returns ErrCodeNotFound.
func MatchTeacherCode(code string, candidates []Course) (Course, error) {
	if err := checkTeacherCode(code); err != nil {
		return Course{}, err
	}
	for _, c := range candidates {
		if TeacherCode(c) == code {
			return c, nil
		}
	}
	return Course{}, ErrCodeNotFound
}
