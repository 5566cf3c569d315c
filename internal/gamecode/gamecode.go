// Package gamecode generates and validates the two identifiers a game
// carries: a long, time-sortable game ID used for storage and routing,
// and a short join code players read aloud to invite each other.
package gamecode

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Crockford's base32 alphabet: no i, l, o or u, so codes survive being
// read over a phone
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// JoinCodeLength is the length of a normalized join code
const JoinCodeLength = 6

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator produces game IDs and join codes with configurable
// randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator. A nil RandSource falls back to
// crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// NewID creates a new game ID using UUIDv7 encoded as a 26-character
// base32 string
func NewID() string {
	return NewGenerator(nil).NewID()
}

// NewJoinCode creates a new 6-character join code
func NewJoinCode() string {
	return NewGenerator(nil).NewJoinCode()
}

// NewID creates a new game ID using the generator's RandSource
func (g *Generator) NewID() string {
	uuid := g.generateUUIDv7()
	return encodeBase32(uuid)
}

// NewJoinCode creates a join code using the generator's RandSource.
// Codes are not globally unique; the lobby retries on collision with a
// live game.
func (g *Generator) NewJoinCode() string {
	code := make([]byte, JoinCodeLength)
	if g.randSource != nil {
		for i := range code {
			code[i] = alphabet[g.randSource.Intn(len(alphabet))]
		}
		return string(code)
	}

	raw := make([]byte, JoinCodeLength)
	if _, err := rand.Read(raw); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for i, b := range raw {
		code[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(code)
}

// generateUUIDv7 creates a 128-bit UUIDv7: a 48-bit millisecond
// timestamp followed by version, variant and random bits. The timestamp
// prefix keeps IDs sortable by creation time.
func (g *Generator) generateUUIDv7() [16]byte {
	var uuid [16]byte

	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			uuid[i] = byte(g.randSource.Intn(256))
		}
	} else {
		if _, err := rand.Read(uuid[6:]); err != nil {
			panic("failed to generate random bytes: " + err.Error())
		}
	}

	// Version 7, variant 10.
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return uuid
}

// encodeBase32 encodes a 128-bit UUID as a 26-character base32 string,
// five bits per character
func encodeBase32(data [16]byte) string {
	result := make([]byte, 26)

	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}

		result[i] = alphabet[value]
	}

	return string(result)
}

// ValidateID checks that a game ID is 26 characters of valid base32
// with a first character of 0-7
func ValidateID(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game ID must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

// NormalizeJoinCode lowercases a typed join code and folds the
// characters Crockford's alphabet excludes for looking like digits:
// o reads as 0, i and l as 1
func NormalizeJoinCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		switch r {
		case 'o':
			b.WriteRune('0')
		case 'i', 'l':
			b.WriteRune('1')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateJoinCode checks a normalized join code: exactly six
// characters, all from the base32 alphabet
func ValidateJoinCode(code string) error {
	if len(code) != JoinCodeLength {
		return fmt.Errorf("join code must be exactly %d characters, got %d", JoinCodeLength, len(code))
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", code[i], i)
		}
	}
	return nil
}
