package osm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// object is one IDF-style record: a class name followed by its fields.
type object struct {
	class  string
	fields []string
	line   int
}

func (o *object) field(i int) string {
	if i < len(o.fields) {
		return o.fields[i]
	}
	return ""
}

// float reads a numeric field; blank fields take the default
func (o *object) float(i int, def float64) (float64, error) {
	s := o.field(i)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, o.errorf("field %d of %s: %q is not a number", i+1, o.class, s)
	}
	return f, nil
}

func (o *object) point(i int) (mgl64.Vec3, error) {
	var p mgl64.Vec3
	for k := 0; k < 3; k++ {
		v, err := o.float(i+k, 0)
		if err != nil {
			return p, err
		}
		p[k] = v
	}
	return p, nil
}

// vertices reads the x, y, z triples from field i to the end
func (o *object) vertices(i int) ([]mgl64.Vec3, error) {
	values := o.fields
	if i < len(values) {
		values = values[i:]
	} else {
		values = nil
	}
	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}
	if len(values)%3 != 0 {
		return nil, o.errorf("%s %q has %d vertex coordinates, not a multiple of 3", o.class, o.field(1), len(values))
	}

	out := make([]mgl64.Vec3, 0, len(values)/3)
	for k := 0; k < len(values); k += 3 {
		var p mgl64.Vec3
		for c := 0; c < 3; c++ {
			f, err := strconv.ParseFloat(values[k+c], 64)
			if err != nil {
				return nil, o.errorf("%s %q: vertex coordinate %q is not a number", o.class, o.field(1), values[k+c])
			}
			p[c] = f
		}
		out = append(out, p)
	}
	return out, nil
}

// handle validates the handle field and returns its canonical key
func (o *object) handle() (uuid.UUID, error) {
	h := o.field(0)
	id, err := uuid.Parse(h)
	if err != nil {
		return uuid.Nil, o.errorf("%s has invalid handle %q", o.class, h)
	}
	return id, nil
}

func (o *object) errorf(format string, args ...any) error {
	return &ParseError{Line: o.line, Msg: fmt.Sprintf(format, args...)}
}

// parseObjects splits the model text into objects. Fields are separated by
// ',' and objects terminated by ';'; '!' starts a comment running to the
// end of the line.
func parseObjects(reader io.Reader) ([]*object, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var objects []*object
	var current *object
	var field strings.Builder
	lineNo := 0
	start := 0
	started := false

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '!'); i >= 0 {
			line = line[:i]
		}

		for _, r := range line {
			if r != ',' && r != ';' {
				if current == nil && !started && !unicode.IsSpace(r) {
					start, started = lineNo, true
				}
				field.WriteRune(r)
				continue
			}

			value := strings.TrimSpace(field.String())
			field.Reset()
			if current == nil {
				if value == "" {
					return nil, &ParseError{Line: lineNo, Msg: "object without class name"}
				}
				current = &object{class: value, line: start}
				started = false
			} else {
				current.fields = append(current.fields, value)
			}
			if r == ';' {
				objects = append(objects, current)
				current = nil
			}
		}
		field.WriteByte(' ')
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading model: %w", err)
	}
	if current != nil {
		return nil, &ParseError{Line: current.line, Msg: fmt.Sprintf("%s is not terminated with ';'", current.class)}
	}
	if rest := strings.TrimSpace(field.String()); rest != "" {
		return nil, &ParseError{Line: start, Msg: fmt.Sprintf("unexpected text %q", rest)}
	}
	return objects, nil
}
