package modelfile

import (
	"strings"
	"testing"
)

const sample = `#MiniLight

10

4 4

(0 0 -5) (0 0 1) 45

(1 1 1) (0.5 0.5 0.5)

(-1 -1 0) (1 -1 0) (0 1 0) (0.7 0.7 0.7) (0 0 0)
(-1 4 -1) (1 4 -1) (0 4 1) (0 0 0) (2 2 2)
`

func TestParseSample(t *testing.T) {
	m, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Iterations != 10 {
		t.Errorf("Iterations = %d, want 10", m.Iterations)
	}
	if m.Width != 4 || m.Height != 4 {
		t.Errorf("dims = %dx%d, want 4x4", m.Width, m.Height)
	}
	if m.CameraAngleDeg != 45 {
		t.Errorf("angle = %v, want 45", m.CameraAngleDeg)
	}
	if len(m.Triangles) != 2 {
		t.Fatalf("len(Triangles) = %d, want 2", len(m.Triangles))
	}
}

func TestParseMissingHeaderFails(t *testing.T) {
	_, err := Parse(strings.NewReader("10\n4 4\n(0 0 -5) (0 0 1) 45\n(1 1 1) (0 0 0)\n"))
	if err == nil {
		t.Fatal("expected an error for a missing #MiniLight header")
	}
}

func TestParseClampsAngleAndDimensions(t *testing.T) {
	doc := `#MiniLight
1
1 9000
(0 0 0) (0 0 1) 200
(1 1 1) (0 0 0)
`
	m, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.CameraAngleDeg != angleMaxDeg {
		t.Errorf("angle = %v, want clamped to %v", m.CameraAngleDeg, angleMaxDeg)
	}
	if m.Height != widthHeightMax {
		t.Errorf("height = %d, want clamped to %d", m.Height, widthHeightMax)
	}
}

func TestParseZeroTrianglesIsValid(t *testing.T) {
	doc := "#MiniLight\n1\n2 2\n(0 0 0) (0 0 1) 45\n(1 1 1) (0 0 0)\n"
	m, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(m.Triangles) != 0 {
		t.Errorf("expected no triangles, got %d", len(m.Triangles))
	}
}
