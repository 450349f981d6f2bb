package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// WriteASCII writes the model in the ASCII STL format
func WriteASCII(w io.Writer, model *Model) error {
	bw := bufio.NewWriter(w)
	name := strings.ReplaceAll(model.Name, "\n", " ")

	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range model.Triangles {
		fmt.Fprintf(bw, "  facet normal %s\n", vecASCII(t.Normal))
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range []mgl64.Vec3{t.V1, t.V2, t.V3} {
			fmt.Fprintf(bw, "      vertex %s\n", vecASCII(v))
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)

	return bw.Flush()
}

// WriteBinary writes the model in the binary STL format. The header never
// starts with "solid" so readers do not mistake the file for ASCII.
func WriteBinary(w io.Writer, model *Model) error {
	bw := bufio.NewWriter(w)

	header := make([]byte, 80)
	copy(header, "binary "+model.Name)
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(model.Triangles))); err != nil {
		return fmt.Errorf("failed to write triangle count: %w", err)
	}

	for i, t := range model.Triangles {
		record := struct {
			Normal, V1, V2, V3 [3]float32
			Attributes         uint16
		}{
			Normal: vec32(t.Normal),
			V1:     vec32(t.V1),
			V2:     vec32(t.V2),
			V3:     vec32(t.V3),
		}
		if err := binary.Write(bw, binary.LittleEndian, &record); err != nil {
			return fmt.Errorf("failed to write triangle %d: %w", i, err)
		}
	}

	return bw.Flush()
}

func vecASCII(v mgl64.Vec3) string {
	return fmt.Sprintf("%e %e %e", v[0], v[1], v[2])
}

func vec32(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
