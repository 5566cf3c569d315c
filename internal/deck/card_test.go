package deck

import "testing"

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "spade run",
			input: "AsKsQsJsTs",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Spades, Rank: King},
				{Suit: Spades, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Ten},
			},
		},
		{
			name:  "mixed suits",
			input: "AhKdQcJs9s",
			expected: []Card{
				{Suit: Hearts, Rank: Ace},
				{Suit: Diamonds, Rank: King},
				{Suit: Clubs, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Nine},
			},
		},
		{
			name:  "low cards",
			input: "5h4d3c2s",
			expected: []Card{
				{Suit: Hearts, Rank: Five},
				{Suit: Diamonds, Rank: Four},
				{Suit: Clubs, Rank: Three},
				{Suit: Spades, Rank: Two},
			},
		},
		{
			name:  "jokers",
			input: "X1X2",
			expected: []Card{
				{Joker: 1},
				{Joker: 2},
			},
		},
		{
			name:  "joker among suit cards",
			input: "AsX1Kh",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Joker: 1},
				{Suit: Hearts, Rank: King},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjcx1",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
				{Joker: 1},
			},
		},
		{
			name:    "invalid joker number",
			input:   "X3",
			wantErr: true,
		},
		{
			name:    "invalid rank",
			input:   "ZsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AsKx",
			wantErr: true,
		},
		{
			name:    "odd length",
			input:   "AsK",
			wantErr: true,
		},
		{
			name:     "empty string",
			input:    "",
			expected: []Card{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCards() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !cardsEqual(got, tt.expected) {
				t.Errorf("ParseCards() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustParseCards(t *testing.T) {
	// Test successful parsing
	cards := MustParseCards("AsKs")
	expected := []Card{
		{Suit: Spades, Rank: Ace},
		{Suit: Spades, Rank: King},
	}
	if !cardsEqual(cards, expected) {
		t.Errorf("MustParseCards() = %v, want %v", cards, expected)
	}

	// Test panic on invalid input
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseCards() should panic on invalid input")
		}
	}()
	MustParseCards("invalid")
}

func TestCardCode(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{NewCard(Spades, Ace), "As"},
		{NewCard(Hearts, Ten), "Th"},
		{NewCard(Diamonds, Two), "2d"},
		{NewCard(Clubs, Queen), "Qc"},
		{NewJoker(1), "X1"},
		{NewJoker(2), "X2"},
	}

	for _, tt := range tests {
		if got := tt.card.Code(); got != tt.want {
			t.Errorf("Code() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseCard(tt.want)
		if err != nil {
			t.Errorf("ParseCard(%q) error = %v", tt.want, err)
			continue
		}
		if !parsed.Equal(tt.card) {
			t.Errorf("ParseCard(%q) = %v, want %v", tt.want, parsed, tt.card)
		}
	}
}

func TestCardString(t *testing.T) {
	if got := NewCard(Spades, Ace).String(); got != "A♠" {
		t.Errorf("String() = %q, want %q", got, "A♠")
	}
	if got := NewJoker(2).String(); got != "Joker 2" {
		t.Errorf("String() = %q, want %q", got, "Joker 2")
	}
}

func TestCutValue(t *testing.T) {
	tests := []struct {
		card Card
		want int
	}{
		{NewCard(Spades, Two), 2},
		{NewCard(Hearts, Ten), 10},
		{NewCard(Diamonds, Ace), 14},
		{NewJoker(1), 15},
		{NewJoker(2), 15},
	}

	for _, tt := range tests {
		if got := tt.card.CutValue(); got != tt.want {
			t.Errorf("CutValue(%v) = %d, want %d", tt.card, got, tt.want)
		}
	}
}

func TestCardEqual(t *testing.T) {
	if !NewJoker(1).Equal(NewJoker(1)) {
		t.Error("Joker 1 should equal itself")
	}
	if NewJoker(1).Equal(NewJoker(2)) {
		t.Error("Joker 1 should not equal Joker 2")
	}
	// A joker's zero-valued Suit and Rank must not make it equal a suit card
	if NewJoker(1).Equal(NewCard(Spades, Two)) {
		t.Error("a joker should never equal a suit card")
	}
	if !NewCard(Hearts, King).Equal(NewCard(Hearts, King)) {
		t.Error("identical suit cards should be equal")
	}
	if NewCard(Hearts, King).Equal(NewCard(Spades, King)) {
		t.Error("same rank different suit should not be equal")
	}
}

func cardsEqual(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
