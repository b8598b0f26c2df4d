package app

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayusman/marionette/internal/rig"
)

// ErrUnknownModel is returned for a model id with no skeleton file.
var ErrUnknownModel = errors.New("unknown model")

//go:embed skeletons/*.json
var builtinFS embed.FS

// ModelInfo describes a selectable model.
type ModelInfo struct {
	ID      string `json:"id"`
	Builtin bool   `json:"builtin"`
}

// Models resolves model ids to skeleton descriptions. Files in the models
// directory shadow built-in skeletons of the same id.
type Models struct {
	dir string
}

// NewModels creates a registry over dir. An empty dir serves built-ins only.
func NewModels(dir string) *Models {
	return &Models{dir: dir}
}

// List returns every known model sorted by id.
func (m *Models) List() ([]ModelInfo, error) {
	byID := make(map[string]ModelInfo)

	builtin, err := fs.Glob(builtinFS, "skeletons/*.json")
	if err != nil {
		return nil, err
	}
	for _, p := range builtin {
		id := modelID(p)
		byID[id] = ModelInfo{ID: id, Builtin: true}
	}

	if m.dir != "" {
		local, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		for _, p := range local {
			id := modelID(p)
			byID[id] = ModelInfo{ID: id}
		}
	}

	out := make([]ModelInfo, 0, len(byID))
	for _, info := range byID {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Has reports whether id resolves to a skeleton.
func (m *Models) Has(id string) bool {
	rc, err := m.open(id)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

// Load reads the skeleton for id.
func (m *Models) Load(id string) (*rig.Bones, error) {
	rc, err := m.open(id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	bones, err := rig.LoadBones(rc)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", id, err)
	}
	return bones, nil
}

func (m *Models) open(id string) (io.ReadCloser, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}

	if m.dir != "" {
		f, err := os.Open(filepath.Join(m.dir, id+".json"))
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open model %s: %w", id, err)
		}
	}

	f, err := builtinFS.Open("skeletons/" + id + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return f, nil
}

func modelID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}
