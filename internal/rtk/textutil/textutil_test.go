package textutil

import "testing"

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"abcdefgh", 2},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.in); got != c.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStripANSIIdempotent(t *testing.T) {
	in := "\x1b[31mred\x1b[0m plain"
	once := StripANSI(in)
	twice := StripANSI(once)
	if once != twice {
		t.Fatalf("StripANSI not idempotent: %q != %q", once, twice)
	}
	if once != "red plain" {
		t.Fatalf("StripANSI(%q) = %q", in, once)
	}
}

func TestTruncatePreservesUTF8Boundaries(t *testing.T) {
	in := "héllo wörld" // contains multi-byte runes
	out, truncated := Truncate(in, 5)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if n := len([]rune(out)); n != 5 {
		t.Fatalf("expected 5 runes, got %d (%q)", n, out)
	}
	for _, r := range out {
		if r == 0xFFFD {
			t.Fatalf("truncation split a codepoint: %q", out)
		}
	}
}

func TestTruncateNoOpWhenShort(t *testing.T) {
	out, truncated := Truncate("short", 500)
	if truncated || out != "short" {
		t.Fatalf("expected no truncation, got %q, %v", out, truncated)
	}
}

func TestCompactPathRightmostWins(t *testing.T) {
	cases := map[string]string{
		"/home/user/project/src/lib/foo.go":  "foo.go",
		"/home/user/project/tests/unit/a.rs": "unit/a.rs",
		"C:\\work\\proj\\src\\main.rs":       "main.rs",
		"standalone.txt":                     "standalone.txt",
		"/some/deep/path/file.go":            "file.go",
	}
	for in, want := range cases {
		if got := CompactPath(in); got != want {
			t.Errorf("CompactPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompactPackageName(t *testing.T) {
	if got := CompactPackageName("github.com/foo/bar/baz"); got != "baz" {
		t.Errorf("got %q", got)
	}
	if got := CompactPackageName("baz"); got != "baz" {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObjectViaVitestMarker(t *testing.T) {
	input := "dotenv@16 injecting env\n{\"numTotalTests\":5,\"nested\":{\"a\":1}}\ntrailing noise"
	got, ok := ExtractJSONObject(input)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	want := `{"numTotalTests":5,"nested":{"a":1}}`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestExtractJSONObjectFallsBackToBraceLine(t *testing.T) {
	input := "some banner\n{\n  \"foo\": \"bar\"\n}\nmore noise"
	got, ok := ExtractJSONObject(input)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if got != "{\n  \"foo\": \"bar\"\n}" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONObjectNoMatch(t *testing.T) {
	if _, ok := ExtractJSONObject("no json here at all"); ok {
		t.Fatal("expected no match")
	}
}

func TestTruncateLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}
	kept, dropped := TruncateLines(lines, 3)
	if len(kept) != 3 || dropped != 2 {
		t.Fatalf("got kept=%v dropped=%d", kept, dropped)
	}
	kept, dropped = TruncateLines(lines, 10)
	if len(kept) != 5 || dropped != 0 {
		t.Fatalf("got kept=%v dropped=%d", kept, dropped)
	}
}
