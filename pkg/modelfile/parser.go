// Package modelfile parses the renderer's bespoke scene text format: a
// header, iteration count, image size, camera line, sky/ground line,
// and zero or more triangle lines. See Load.
package modelfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hxa7241/minilight/pkg/scene"
	"github.com/hxa7241/minilight/pkg/vector"
)

const (
	widthHeightMax = 4000
	angleMinDeg    = 10.0
	angleMaxDeg    = 160.0
)

// Model is everything a scene file yields: the render-loop iteration
// count, the image dimensions, the camera parameters, and the scene
// content itself.
type Model struct {
	Iterations int
	Width      int
	Height     int

	CameraPosition  vector.Vec3
	CameraDirection vector.Vec3
	CameraAngleDeg  float64

	Sky    vector.Vec3
	Ground vector.Vec3

	Triangles []*scene.Triangle
}

// Load opens path and parses it as a model file.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse model file %q: %w", path, err)
	}
	return m, nil
}

// Parse reads a model file from r.
func Parse(r io.Reader) (*Model, error) {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 64*1024), 16*1024*1024)

	nextLine := func() (string, bool) {
		for lines.Scan() {
			line := strings.TrimSpace(lines.Text())
			if line != "" {
				return line, true
			}
		}
		return "", false
	}

	header, ok := nextLine()
	if !ok || !strings.HasPrefix(header, "#MiniLight") {
		return nil, fmt.Errorf("missing #MiniLight header")
	}

	iterLine, ok := nextLine()
	if !ok {
		return nil, fmt.Errorf("missing iteration count")
	}
	iterations, err := strconv.Atoi(strings.TrimSpace(iterLine))
	if err != nil || iterations <= 0 {
		return nil, fmt.Errorf("invalid iteration count %q", iterLine)
	}

	dimsLine, ok := nextLine()
	if !ok {
		return nil, fmt.Errorf("missing image dimensions")
	}
	dims := strings.Fields(dimsLine)
	if len(dims) < 2 {
		return nil, fmt.Errorf("expected two image dimensions, got %q", dimsLine)
	}
	width, err := parseClampedInt(dims[0], 1, widthHeightMax)
	if err != nil {
		return nil, fmt.Errorf("invalid image width: %w", err)
	}
	height, err := parseClampedInt(dims[1], 1, widthHeightMax)
	if err != nil {
		return nil, fmt.Errorf("invalid image height: %w", err)
	}

	cameraLine, ok := nextLine()
	if !ok {
		return nil, fmt.Errorf("missing camera line")
	}
	cameraVals, err := floatFields(cameraLine, 7)
	if err != nil {
		return nil, fmt.Errorf("invalid camera line: %w", err)
	}
	cameraPos := vector.V3(cameraVals[0], cameraVals[1], cameraVals[2])
	cameraDir := vector.V3(cameraVals[3], cameraVals[4], cameraVals[5])
	angle := cameraVals[6]
	if angle < angleMinDeg {
		angle = angleMinDeg
	}
	if angle > angleMaxDeg {
		angle = angleMaxDeg
	}

	skyGroundLine, ok := nextLine()
	if !ok {
		return nil, fmt.Errorf("missing sky/ground line")
	}
	skyGroundVals, err := floatFields(skyGroundLine, 6)
	if err != nil {
		return nil, fmt.Errorf("invalid sky/ground line: %w", err)
	}
	sky := vector.V3(skyGroundVals[0], skyGroundVals[1], skyGroundVals[2])
	ground := vector.V3(skyGroundVals[3], skyGroundVals[4], skyGroundVals[5])

	var rest strings.Builder
	for lines.Scan() {
		rest.WriteString(lines.Text())
		rest.WriteByte(' ')
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("read triangle data: %w", err)
	}

	triangles, err := parseTriangles(rest.String())
	if err != nil {
		return nil, fmt.Errorf("parse triangles: %w", err)
	}

	return &Model{
		Iterations:      iterations,
		Width:           width,
		Height:          height,
		CameraPosition:  cameraPos,
		CameraDirection: cameraDir,
		CameraAngleDeg:  angle,
		Sky:             sky,
		Ground:          ground,
		Triangles:       triangles,
	}, nil
}

// parseTriangles tokenizes the trailing scene content (with
// parentheses stripped, since they carry no grouping meaning beyond
// visual separation) into floats and consumes them 15 at a time: three
// vertices, a reflectivity, and an emissivity, each a 3-vector.
func parseTriangles(rest string) ([]*scene.Triangle, error) {
	stripped := strings.NewReplacer("(", " ", ")", " ").Replace(rest)
	fields := strings.Fields(stripped)

	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		vals = append(vals, v)
	}

	const perTriangle = 15
	var triangles []*scene.Triangle
	for i := 0; i+perTriangle <= len(vals); i += perTriangle {
		v := vals[i : i+perTriangle]
		tri := scene.NewTriangle(
			vector.V3(v[0], v[1], v[2]),
			vector.V3(v[3], v[4], v[5]),
			vector.V3(v[6], v[7], v[8]),
			vector.V3(v[9], v[10], v[11]),
			vector.V3(v[12], v[13], v[14]),
		)
		triangles = append(triangles, &tri)
	}
	return triangles, nil
}

func floatFields(line string, count int) ([]float64, error) {
	stripped := strings.NewReplacer("(", " ", ")", " ").Replace(line)
	fields := strings.Fields(stripped)
	if len(fields) < count {
		return nil, fmt.Errorf("expected %d numbers, got %d in %q", count, len(fields), line)
	}
	vals := make([]float64, count)
	for i := 0; i < count; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", fields[i])
		}
		vals[i] = v
	}
	return vals, nil
}

func parseClampedInt(s string, min, max int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v, nil
}
