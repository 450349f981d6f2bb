package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/osm2brep/pkg/geometry"
)

const (
	headerSize = 80
	recordSize = 50 // normal, three corners, attribute count
)

// ErrMalformed is returned for data that is neither valid ASCII nor binary STL
var ErrMalformed = errors.New("malformed STL")

// Parse reads an ASCII or binary STL file
func Parse(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	model, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return model, nil
}

// Decode reads an STL mesh from memory. Data whose length matches the
// binary layout for its triangle count is binary, even when the header
// starts with "solid".
func Decode(data []byte) (*Model, error) {
	if isBinary(data) {
		return decodeBinary(data), nil
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return decodeASCII(data)
	}
	return nil, fmt.Errorf("%w: %d bytes match neither format", ErrMalformed, len(data))
}

func isBinary(data []byte) bool {
	if len(data) < headerSize+4 {
		return false
	}
	count := uint64(binary.LittleEndian.Uint32(data[headerSize:]))
	return uint64(len(data)) == headerSize+4+count*recordSize
}

// decodeBinary expects data already checked by isBinary
func decodeBinary(data []byte) *Model {
	model := NewModel(string(bytes.TrimRight(data[:headerSize], "\x00 ")))

	records := data[headerSize+4:]
	for len(records) >= recordSize {
		var v [4]mgl64.Vec3
		for i := range v {
			for j := 0; j < 3; j++ {
				bits := binary.LittleEndian.Uint32(records[(i*3+j)*4:])
				v[i][j] = float64(math.Float32frombits(bits))
			}
		}
		model.AddTriangle(geometry.Triangle{Normal: v[0], V1: v[1], V2: v[2], V3: v[3]})
		records = records[recordSize:]
	}
	return model
}

func decodeASCII(data []byte) (*Model, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	model := NewModel("")

	var normal mgl64.Vec3
	var corners []mgl64.Vec3
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "solid":
			model.Name = strings.Join(fields[1:], " ")
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: expected facet normal x y z", ErrMalformed, line)
			}
			normal, err = parseVec(fields[2:])
			corners = corners[:0]
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: expected vertex x y z", ErrMalformed, line)
			}
			var p mgl64.Vec3
			p, err = parseVec(fields[1:])
			corners = append(corners, p)
		case "endfacet":
			if len(corners) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrMalformed, line, len(corners))
			}
			model.AddTriangle(geometry.Triangle{Normal: normal, V1: corners[0], V2: corners[1], V3: corners[2]})
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return model, nil
}

func parseVec(fields []string) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
