package roomle

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SkippedItem 被跳过的网格或材质
type SkippedItem struct {
	Name string
	Err  error
}

// NamedTexture pairs an image with its assigned file name.
type NamedTexture struct {
	Name  string
	Image *Image
}

// ExportResult 一次导出的全部产物
type ExportResult struct {
	CatalogID      string
	ComponentID    string
	Script         string
	Component      *ComponentDefinition
	Materials      []*MaterialRecord
	ExternalMeshes []*ExternalMesh
	Textures       []NamedTexture
	Skipped        []SkippedItem
}

// Export turns sc into a script, a component definition and material
// records. External meshes are written to outDir/meshes while emitting.
func (s *ExportSession) Export(sc *Scene, outDir string) (*ExportResult, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	em := NewGeometryEmitter(s, filepath.Join(outDir, MESHES_DIR_NAME))
	script, err := em.Emit(sc)
	if err != nil {
		return nil, err
	}
	comp, err := s.AssembleComponent(script)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{
		CatalogID:      s.opts.CatalogID,
		ComponentID:    s.opts.ComponentID,
		Script:         script,
		Component:      comp,
		ExternalMeshes: em.External,
		Skipped:        em.Skipped,
	}

	if s.opts.ExportMaterials {
		for _, name := range em.Materials {
			g := sc.Material(name)
			if g == nil {
				s.log.Warn("material skipped", zap.String("material", name), zap.String("reason", "not in scene"))
				res.Skipped = append(res.Skipped, SkippedItem{Name: name, Err: errors.New("material not found")})
				continue
			}
			rec, err := s.BuildMaterial(g)
			if err != nil {
				s.log.Warn("material skipped", zap.String("material", name), zap.Error(err))
				res.Skipped = append(res.Skipped, SkippedItem{Name: name, Err: err})
				continue
			}
			res.Materials = append(res.Materials, rec)
		}
		for _, img := range s.textures.Images() {
			name, _ := s.textures.Lookup(img)
			res.Textures = append(res.Textures, NamedTexture{Name: name, Image: img})
		}
	}

	s.log.Info("export finished",
		zap.String("component", comp.ExternalID()),
		zap.Int("parameters", len(comp.Parameters)),
		zap.Int("materials", len(res.Materials)),
		zap.Int("external_meshes", len(res.ExternalMeshes)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (r *ExportResult) MaterialIDs() []string {
	ids := make([]string, 0, len(r.Materials))
	for _, m := range r.Materials {
		ids = append(ids, m.ID)
	}
	return ids
}

type exportMeta struct {
	CatalogID   string   `json:"catalog_id"`
	ComponentID string   `json:"component_id"`
	Version     string   `json:"version"`
	Materials   []string `json:"materials"`
	Meshes      []string `json:"meshes"`
}

// WriteFiles writes the script, component definition, material and tag
// tables, textures and meta.json below dir.
func (r *ExportResult) WriteFiles(dir string) error {
	compDir := filepath.Join(dir, COMPONENTS_DIR_NAME)
	matDir := filepath.Join(dir, MATERIALS_DIR_NAME)
	for _, d := range []string{dir, compDir, matDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", d)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, r.ComponentID+".txt"), []byte(r.Script), 0o644); err != nil {
		return err
	}

	js, err := r.Component.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(compDir, r.CatalogID+"_"+r.ComponentID+".json"), []byte(js), 0o644); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteMaterialsCSV(&buf, r.Materials); err != nil {
		return errors.Wrap(err, "materials csv")
	}
	if err := os.WriteFile(filepath.Join(matDir, MATERIALS_CSV_NAME), buf.Bytes(), 0o644); err != nil {
		return err
	}
	for _, t := range r.Textures {
		if err := SaveTexture(matDir, t.Name, t.Image); err != nil {
			return errors.Wrapf(err, "saving texture %s", t.Name)
		}
	}

	buf.Reset()
	if err := r.Component.WriteTagsCSV(&buf); err != nil {
		return errors.Wrap(err, "tags csv")
	}
	if err := os.WriteFile(filepath.Join(dir, TAGS_CSV_NAME), buf.Bytes(), 0o644); err != nil {
		return err
	}

	meta := exportMeta{
		CatalogID:   r.CatalogID,
		ComponentID: r.ComponentID,
		Version:     VERSION,
		Materials:   r.MaterialIDs(),
		Meshes:      []string{},
	}
	for _, m := range r.ExternalMeshes {
		meta.Meshes = append(meta.Meshes, m.File)
	}
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, META_JSON_NAME), data, 0o644)
}
