package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingMaterialField matches every MissingMaterialFieldError.
var ErrMissingMaterialField = errors.New("missing material field")

// MissingMaterialFieldError reports an MTL material that lacks a field the renderer needs.
type MissingMaterialFieldError struct {
	Material string
	Field    string
}

func (e *MissingMaterialFieldError) Error() string {
	return fmt.Sprintf("essential material field '%s' missing", e.Field)
}

// Is makes errors.Is(err, ErrMissingMaterialField) true.
func (e *MissingMaterialFieldError) Is(target error) bool {
	return target == ErrMissingMaterialField
}

// essentialMaterialFields maps the MTL keys every material must define to their field names,
// in the order they are checked.
var essentialMaterialFields = []struct {
	key   string
	field string
}{
	{"Ka", "ambient"},
	{"Kd", "diffuse"},
	{"Ks", "specular"},
	{"Ns", "shininess"},
}

// mtlKeys holds the statement keys seen for each material of an MTL file, in file order.
type mtlKeys struct {
	names []string
	keys  map[string]map[string]bool
}

// scanMtlKeys records which statements each newmtl block contains. The OBJ decoder fills
// absent fields with defaults, so presence has to be checked on the raw file.
func scanMtlKeys(r io.Reader) (mtlKeys, error) {
	out := mtlKeys{keys: make(map[string]map[string]bool)}
	var current map[string]bool

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			name := strings.Join(fields[1:], " ")
			if _, seen := out.keys[name]; !seen {
				out.names = append(out.names, name)
			}
			current = make(map[string]bool)
			out.keys[name] = current
			continue
		}
		if current != nil {
			current[fields[0]] = true
		}
	}
	if err := sc.Err(); err != nil {
		return mtlKeys{}, fmt.Errorf("failed to scan material library: %w", err)
	}
	return out, nil
}

// validate returns an error for the first essential field missing from any material.
func (m mtlKeys) validate() error {
	for _, name := range m.names {
		for _, f := range essentialMaterialFields {
			if !m.keys[name][f.key] {
				return fmt.Errorf("material %q: %w", name, &MissingMaterialFieldError{Material: name, Field: f.field})
			}
		}
	}
	return nil
}

// findMtllib returns the path of the first mtllib statement of an OBJ file, resolved against
// the OBJ's directory, or "" when the file names none.
func findMtllib(objPath string) (string, error) {
	f, err := os.Open(objPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, "mtllib")
		if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		name := strings.TrimSpace(rest)
		if filepath.IsAbs(name) {
			return name, nil
		}
		return filepath.Join(filepath.Dir(objPath), name), nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to scan %q: %w", objPath, err)
	}
	return "", nil
}
