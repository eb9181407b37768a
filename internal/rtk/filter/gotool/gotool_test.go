package gotool

import "testing"

func TestFilterGoTestJSONAllPass(t *testing.T) {
	stdout := `{"Action":"run","Package":"pkg","Test":"TestA"}
{"Action":"output","Package":"pkg","Test":"TestA","Output":"=== RUN   TestA\n"}
{"Action":"pass","Package":"pkg","Test":"TestA","Elapsed":0.01}
{"Action":"run","Package":"pkg","Test":"TestB"}
{"Action":"pass","Package":"pkg","Test":"TestB","Elapsed":0.02}
{"Action":"pass","Package":"pkg","Elapsed":0.03}
`
	tr, ok := filterGoTestJSON(stdout)
	if !ok {
		t.Fatal("expected ok=true for valid NDJSON stream")
	}
	if tr.Passed != 2 || tr.Failed != 0 || tr.Total != 2 {
		t.Fatalf("got %+v", tr)
	}
}

func TestFilterGoTestJSONWithFailures(t *testing.T) {
	stdout := `{"Action":"run","Package":"pkg","Test":"TestA"}
{"Action":"output","Package":"pkg","Test":"TestA","Output":"    expected 3, got 4\n"}
{"Action":"fail","Package":"pkg","Test":"TestA","Elapsed":0.01}
{"Action":"run","Package":"pkg","Test":"TestB"}
{"Action":"pass","Package":"pkg","Test":"TestB","Elapsed":0.02}
`
	tr, ok := filterGoTestJSON(stdout)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if tr.Passed != 1 || tr.Failed != 1 || tr.Total != 2 {
		t.Fatalf("got %+v", tr)
	}
	if len(tr.Failures) != 1 {
		t.Fatalf("expected 1 failure recorded, got %d", len(tr.Failures))
	}
	if tr.Failures[0].TestName != "TestA" {
		t.Errorf("got test name %q", tr.Failures[0].TestName)
	}
}

func TestFilterGoTestJSONRejectsNonNDJSON(t *testing.T) {
	_, ok := filterGoTestJSON("random text with no structure\nmore noise\n")
	if ok {
		t.Fatal("expected ok=false for non-NDJSON input")
	}
}

func TestFilterGoBuildKeepsErrorLines(t *testing.T) {
	out := "# example.com/pkg\n./main.go:10:2: undefined: foo\nsome unrelated line\n"
	lines, dropped := filterGoBuild(out)
	if dropped != 0 {
		t.Fatalf("expected no drops, got %d", dropped)
	}
	if len(lines) != 1 || lines[0] != "./main.go:10:2: undefined: foo" {
		t.Fatalf("got %v", lines)
	}
}

func TestFilterGoBuildSuccess(t *testing.T) {
	lines, dropped := filterGoBuild("")
	if len(lines) != 0 || dropped != 0 {
		t.Fatalf("expected empty output for clean build, got %v dropped=%d", lines, dropped)
	}
}

func TestFilterGoVetKeepsGoFileLines(t *testing.T) {
	out := "# example.com/pkg\n./main.go:5:1: unreachable code\nnoise\n"
	lines, dropped := filterGoVet(out)
	if dropped != 0 || len(lines) != 1 {
		t.Fatalf("got %v dropped=%d", lines, dropped)
	}
}

func TestCompactPackageName(t *testing.T) {
	got := compactPackageName("github.com/rtk-proxy/rtk/internal/rtk/filter")
	want := "rtk/filter"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
	if compactPackageName("main") != "main" {
		t.Errorf("short package name should be unchanged")
	}
}

func TestIsRelevantGoTestLineFiltersBanners(t *testing.T) {
	if isRelevantGoTestLine("=== RUN   TestA") {
		t.Error("RUN banner should not be relevant")
	}
	if isRelevantGoTestLine("--- FAIL: TestA (0.00s)") {
		t.Error("FAIL banner should not be relevant")
	}
	if !isRelevantGoTestLine("    expected 3, got 4") {
		t.Error("expected/got line should be relevant")
	}
	if !isRelevantGoTestLine("panic: runtime error") {
		t.Error("panic line should be relevant")
	}
}
