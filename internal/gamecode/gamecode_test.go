package gamecode

import (
	"strings"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	id := NewID()

	if len(id) != 26 {
		t.Errorf("expected 26 characters, got %d", len(id))
	}
	if err := ValidateID(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
	if id[0] > '7' {
		t.Errorf("first character %c exceeds maximum '7'", id[0])
	}
}

func TestNewIDUnique(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestNewIDTimeSorted(t *testing.T) {
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, NewID())
		time.Sleep(time.Millisecond)
	}

	// UUIDv7's timestamp prefix keeps IDs sortable by creation time.
	for i := 1; i < len(ids); i++ {
		if strings.Compare(ids[i-1], ids[i]) >= 0 {
			t.Errorf("IDs not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "valid ID",
			id:      "01h5n0et5q6mt3v7ms1234abcd",
			wantErr: false,
		},
		{
			name:    "too short",
			id:      "01h5n0et5q6mt3v7ms123",
			wantErr: true,
		},
		{
			name:    "too long",
			id:      "01h5n0et5q6mt3v7ms1234abcdef",
			wantErr: true,
		},
		{
			name:    "first char too high",
			id:      "81h5n0et5q6mt3v7ms1234abcd",
			wantErr: true,
		},
		{
			name:    "invalid character",
			id:      "01h5n0et5q6mt3v7ms1234abci",
			wantErr: true,
		},
		{
			name:    "uppercase not allowed",
			id:      "01H5N0ET5Q6MT3V7MS1234ABCD",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewJoinCode(t *testing.T) {
	code := NewJoinCode()

	if len(code) != JoinCodeLength {
		t.Errorf("expected %d characters, got %d", JoinCodeLength, len(code))
	}
	if err := ValidateJoinCode(code); err != nil {
		t.Errorf("generated join code failed validation: %v", err)
	}
}

func TestNormalizeJoinCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"ABC123", "abc123"},
		{"  abc123  ", "abc123"},
		{"oOiIlL", "001111"},
		{"2OqRXz", "20qrxz"},
	}

	for _, tt := range tests {
		if got := NormalizeJoinCode(tt.in); got != tt.want {
			t.Errorf("NormalizeJoinCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateJoinCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"valid", "abc123", false},
		{"too short", "abc12", true},
		{"too long", "abc1234", true},
		{"excluded letter", "abcl23", true},
		{"uppercase", "ABC123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJoinCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJoinCode(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	if len(alphabet) != 32 {
		t.Errorf("alphabet should have 32 characters, got %d", len(alphabet))
	}

	seen := make(map[rune]bool)
	for _, char := range alphabet {
		if seen[char] {
			t.Errorf("duplicate character in alphabet: %c", char)
		}
		seen[char] = true
	}

	forbidden := "ilou"
	for _, char := range forbidden {
		if strings.ContainsRune(alphabet, char) {
			t.Errorf("alphabet should not contain %c", char)
		}
	}
}

// MockRandSource for deterministic testing
type MockRandSource struct {
	values []int
	index  int
}

func NewMockRandSource(values ...int) *MockRandSource {
	return &MockRandSource{values: values}
}

func (m *MockRandSource) Intn(n int) int {
	if m.index >= len(m.values) {
		return 0
	}
	val := m.values[m.index] % n
	m.index++
	return val
}

func TestNewJoinCodeDeterministic(t *testing.T) {
	gen := NewGenerator(NewMockRandSource(0, 1, 2, 3, 4, 5))
	if got := gen.NewJoinCode(); got != "012345" {
		t.Errorf("NewJoinCode() = %q, want %q", got, "012345")
	}

	gen = NewGenerator(NewMockRandSource(31, 31, 31, 31, 31, 31))
	if got := gen.NewJoinCode(); got != "zzzzzz" {
		t.Errorf("NewJoinCode() = %q, want %q", got, "zzzzzz")
	}
}

func TestNewIDWithRandSource(t *testing.T) {
	values := make([]int, 30)
	for i := range values {
		values[i] = i + 100
	}
	gen := NewGenerator(NewMockRandSource(values...))

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, gen.NewID())
	}

	idMap := make(map[string]bool)
	for i, id := range ids {
		if err := ValidateID(id); err != nil {
			t.Errorf("ID %d failed validation: %v", i, err)
		}
		if idMap[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		idMap[id] = true
	}
}
