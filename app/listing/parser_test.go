package listing

import (
	"testing"
	"time"
)

func testRaw(title string) RawListing {
	return RawListing{
		Source:    "facebook",
		ListingID: "123",
		Title:     title,
		Price:     100,
		URL:       "https://example.com/marketplace/item/123",
	}
}

func TestParser_RejectsOldListings(t *testing.T) {
	parser := NewParser(30, true, nil)
	now := time.Now()

	raw := testRaw("Nintendo Switch OLED")
	posted := now.AddDate(0, 0, -45)
	raw.PostedAt = &posted

	parsed, rejection := parser.Run(raw, now)
	if parsed != nil {
		t.Fatal("Expected old listing to be rejected")
	}
	if rejection.Rule != RejectTooOld {
		t.Errorf("Expected rule %s, got %s", RejectTooOld, rejection.Rule)
	}
}

func TestParser_AgeRejectionIgnoresOtherFields(t *testing.T) {
	// Age check must come first, even for a title that is also defective.
	parser := NewParser(7, true, nil)
	now := time.Now()

	raw := testRaw("Broken iPhone 12 for parts")
	posted := now.AddDate(0, 0, -10)
	raw.PostedAt = &posted

	_, rejection := parser.Run(raw, now)
	if rejection == nil || rejection.Rule != RejectTooOld {
		t.Errorf("Expected too_old rejection, got %v", rejection)
	}
}

func TestParser_AgeFromRelativeLabel(t *testing.T) {
	parser := NewParser(30, true, nil)
	now := time.Now()

	cases := []struct {
		label    string
		expected int
	}{
		{"5 minutes ago", 0},
		{"3 hours ago", 0},
		{"14 hours ago", 1},
		{"Listed 2 days ago", 2},
		{"2 weeks ago", 14},
		{"1 month ago", 30},
	}

	for _, tc := range cases {
		raw := testRaw("Nintendo Switch OLED")
		raw.PostedLabel = tc.label

		parsed, rejection := parser.Run(raw, now)
		if rejection != nil {
			t.Fatalf("Unexpected rejection for %q: %v", tc.label, rejection)
		}
		if parsed.AgeDays != tc.expected {
			t.Errorf("Label %q: expected age %d, got %d", tc.label, tc.expected, parsed.AgeDays)
		}
	}
}

func TestParser_RejectsPending(t *testing.T) {
	parser := NewParser(0, true, nil)

	raw := testRaw("Nintendo Switch OLED")
	raw.IsPending = true

	_, rejection := parser.Run(raw, time.Now())
	if rejection == nil || rejection.Rule != RejectPending {
		t.Errorf("Expected pending rejection, got %v", rejection)
	}

	// Pending allowed when exclusion disabled
	parser = NewParser(0, false, nil)
	parsed, rejection := parser.Run(raw, time.Now())
	if parsed == nil {
		t.Errorf("Expected pending listing to pass when exclude_pending is off, got %v", rejection)
	}
}

func TestParser_RejectsDefective(t *testing.T) {
	parser := NewParser(0, true, nil)

	titles := []string{
		"iPhone 12 cracked screen",
		"RTX 3080 FOR PARTS no core",
		"PS5 not working as-is",
	}

	for _, title := range titles {
		_, rejection := parser.Run(testRaw(title), time.Now())
		if rejection == nil || rejection.Rule != RejectDefective {
			t.Errorf("Title %q: expected defective rejection, got %v", title, rejection)
		}
	}
}

func TestParser_DefectPrecedesVague(t *testing.T) {
	// A title that is both vague and defective gets rejected once with the
	// defect rule.
	parser := NewParser(0, true, nil)

	_, rejection := parser.Run(testRaw("Broken electronics lot for parts"), time.Now())
	if rejection == nil {
		t.Fatal("Expected rejection")
	}
	if rejection.Rule != RejectDefective {
		t.Errorf("Expected defective rule to win, got %s", rejection.Rule)
	}
}

func TestParser_RejectsVague(t *testing.T) {
	parser := NewParser(0, true, nil)

	_, rejection := parser.Run(testRaw("Random electronics bundle"), time.Now())
	if rejection == nil || rejection.Rule != RejectVague {
		t.Errorf("Expected vague rejection, got %v", rejection)
	}
}

func TestParser_VagueKeywordWithSpecificProductPasses(t *testing.T) {
	// "bundle" alone is vague, but not when a concrete product is named.
	parser := NewParser(0, true, nil)

	parsed, rejection := parser.Run(testRaw("Nintendo Switch OLED bundle with games"), time.Now())
	if parsed == nil {
		t.Fatalf("Expected listing with specific product to pass, got %v", rejection)
	}
	if !parsed.IsVague {
		t.Error("Expected surviving vague keyword to set the flag")
	}
}

func TestParser_WatchExclusionKeywords(t *testing.T) {
	parser := NewParser(0, true, []string{"replica", "case only"})

	_, rejection := parser.Run(testRaw("iPhone 13 case only"), time.Now())
	if rejection == nil || rejection.Rule != RejectDefective {
		t.Errorf("Expected watch exclusion to reject, got %v", rejection)
	}
}

func TestParser_CleanTitleNotFlaggedVague(t *testing.T) {
	parser := NewParser(0, true, nil)

	parsed, rejection := parser.Run(testRaw("iPhone 13 Pro 256GB unlocked"), time.Now())
	if rejection != nil {
		t.Fatalf("Unexpected rejection: %v", rejection)
	}
	if parsed.IsVague {
		t.Error("Expected clean listing not to be flagged vague")
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"  Nintendo   Switch ", "nintendo switch"},
		{"ＮＩＮＴＥＮＤＯ Switch", "nintendo switch"},
		{"RTX\t3080\nTi", "rtx 3080 ti"},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.expected {
			t.Errorf("NormalizeTitle(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in       string
		expected float64
		ok       bool
	}{
		{"$1,234", 1234, true},
		{"$164.99", 164.99, true},
		{"Free", 0, true},
		{"", 0, false},
		{"call me", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.in)
		if ok != tc.ok || got != tc.expected {
			t.Errorf("ParsePrice(%q) = (%v, %v), expected (%v, %v)", tc.in, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestParseDistance(t *testing.T) {
	cases := []struct {
		in       string
		expected float64
		ok       bool
	}{
		{"5 miles away", 5, true},
		{"Pittsburgh, PA · 12 miles away", 12, true},
		{"10 mi", 10, true},
		{"Listed in Pittsburgh", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDistance(tc.in)
		if ok != tc.ok || got != tc.expected {
			t.Errorf("ParseDistance(%q) = (%v, %v), expected (%v, %v)", tc.in, got, ok, tc.expected, tc.ok)
		}
	}
}
