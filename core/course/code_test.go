package course

import "testing"

func TestTeacherCode(t *testing.T) {
	tests := []struct {
		name string
		crs  Course
		want string
	}{
		{name: "basic", crs: Course{ID: "abcd1234ef", Name: "Physics 101"}, want: "TEACH-PHYS-ABCD"},
		{name: "lowercase inputs", crs: Course{ID: "xy9z77", Name: "maths"}, want: "TEACH-MATH-XY9Z"},
		{name: "whitespace kept verbatim", crs: Course{ID: "abcd", Name: "Go 101"}, want: "TEACH-GO 1-ABCD"},
		{name: "short name", crs: Course{ID: "abcd1234", Name: "IT"}, want: "TEACH-IT-ABCD"},
		{name: "short id", crs: Course{ID: "ab", Name: "Biology"}, want: "TEACH-BIOL-AB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TeacherCode(tt.crs); got != tt.want {
				t.Errorf("TeacherCode() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestMatchTeacherCode(t *testing.T) {
	physics := Course{ID: "abcd1234", Name: "Physics 101"}
	biology := Course{ID: "efgh5678", Name: "Biology"}
	candidates := []Course{biology, physics}

	t.Run("round trip", func(t *testing.T) {
		crs, err := MatchTeacherCode(TeacherCode(physics), candidates)
		if err != nil {
			t.Fatalf("MatchTeacherCode() error = %v", err)
		}
		if crs.ID != physics.ID {
			t.Errorf("matched course = %q; want %q", crs.ID, physics.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := MatchTeacherCode("TEACH-PHYS-ABCD", []Course{biology}); err != ErrCodeNotFound {
			t.Errorf("MatchTeacherCode() error = %v; want %v", err, ErrCodeNotFound)
		}
	})

	t.Run("first match wins on collision", func(t *testing.T) {
		twin := Course{ID: "abcdzzzz", Name: "Physics 102"}
		crs, err := MatchTeacherCode("TEACH-PHYS-ABCD", []Course{physics, twin})
		if err != nil {
			t.Fatalf("MatchTeacherCode() error = %v", err)
		}
		if crs.ID != physics.ID {
			t.Errorf("matched course = %q; want first candidate %q", crs.ID, physics.ID)
		}
	})

	formatTests := []struct {
		name string
		code string
	}{
		{name: "no dashes", code: "BADCODE"},
		{name: "two segments", code: "TEACH-PH"},
		{name: "four segments", code: "TEACH-PH-YS-ICS"},
		{name: "wrong prefix", code: "LEARN-PHYS-ABCD"},
		{name: "empty", code: ""},
	}
	for _, tt := range formatTests {
		t.Run("format: "+tt.name, func(t *testing.T) {
			// format errors reject before any candidate is considered
			if _, err := MatchTeacherCode(tt.code, candidates); err != ErrBadCodeFormat {
				t.Errorf("MatchTeacherCode(%q) error = %v; want %v", tt.code, err, ErrBadCodeFormat)
			}
		})
	}
}
