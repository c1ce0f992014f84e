package roomle

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const SURFACE_STATEMENT = "SetObjSurface"

// MaterialParameterTag 脚本中的材质参数
type MaterialParameterTag struct {
	CatalogID   string
	ComponentID string
	MaterialID  string
	Num         int
}

func (p *MaterialParameterTag) Key() string {
	return fmt.Sprintf("material_%03d", p.Num)
}

func (p *MaterialParameterTag) LabelEN() string {
	return p.ScriptLabelEN() + " (" + p.ComponentID + ")"
}

// ScriptLabelEN is the label shown above the material selection.
func (p *MaterialParameterTag) ScriptLabelEN() string {
	return strings.ReplaceAll(p.MaterialID, "_", " ")
}

func (p *MaterialParameterTag) MaterialExtID() string {
	return p.CatalogID + ":" + p.ComponentID + "_" + p.MaterialID
}

func (p *MaterialParameterTag) TagID() string {
	return p.ComponentID + "_" + p.MaterialID + "_" + p.CatalogID
}

type parameterLabels struct {
	EN string `json:"en"`
}

type parameterDefinition struct {
	Key          string          `json:"key"`
	Type         string          `json:"type"`
	Labels       parameterLabels `json:"labels"`
	DefaultValue string          `json:"defaultValue"`
	ValidGroups  []string        `json:"validGroups"`
}

func (p *MaterialParameterTag) definition() parameterDefinition {
	return parameterDefinition{
		Key:          p.Key(),
		Type:         "Material",
		Labels:       parameterLabels{EN: p.ScriptLabelEN()},
		DefaultValue: p.MaterialExtID(),
		ValidGroups:  []string{p.TagID()},
	}
}

// ComponentDefinition 组件定义, 脚本中的材质已替换为参数
type ComponentDefinition struct {
	CatalogID   string
	ComponentID string
	Script      string
	Parameters  []*MaterialParameterTag
}

func (c *ComponentDefinition) ExternalID() string {
	return c.CatalogID + ":" + c.ComponentID
}

// JSON renders the definition with four space indentation.
func (c *ComponentDefinition) JSON() (string, error) {
	params := make([]parameterDefinition, 0, len(c.Parameters))
	for _, p := range c.Parameters {
		params = append(params, p.definition())
	}
	doc := struct {
		ID         string                `json:"id"`
		Parameters []parameterDefinition `json:"parameters"`
		Geometry   string                `json:"geometry"`
	}{c.ExternalID(), params, c.Script}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// AssembleComponent replaces every material literal in script by a
// parameter key. Lines referring to the same tag share one parameter.
func (s *ExportSession) AssembleComponent(script string) (*ComponentDefinition, error) {
	def := &ComponentDefinition{CatalogID: s.opts.CatalogID, ComponentID: s.opts.ComponentID}
	byTag := make(map[string]*MaterialParameterTag)

	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, SURFACE_STATEMENT) {
			continue
		}
		parts := strings.Split(line, "'")
		if len(parts) != 3 {
			return nil, errors.Wrapf(ErrMalformedSurface, "line %d: %s", i+1, line)
		}
		materialID := parts[1][strings.LastIndex(parts[1], ":")+1:]

		p := &MaterialParameterTag{CatalogID: def.CatalogID, ComponentID: def.ComponentID, MaterialID: materialID}
		if prev, ok := byTag[p.TagID()]; ok {
			p = prev
		} else {
			p.Num = s.nextParameterNumber()
			byTag[p.TagID()] = p
			def.Parameters = append(def.Parameters, p)
		}
		lines[i] = parts[0] + p.Key() + parts[2]
	}
	def.Script = strings.Join(lines, "\n")
	return def, nil
}

var tagsCSVHeader = []string{"tag_id", "label_en", "parent_tag_ids_to_add", "component_ids_to_add", "material_ids_to_add"}

func (c *ComponentDefinition) ComponentTag() string {
	return c.ComponentID + "_" + c.CatalogID
}

// TagRows returns the component tag followed by one row per parameter.
func (c *ComponentDefinition) TagRows() [][]string {
	rows := [][]string{{c.ComponentTag(), c.ComponentID, "", c.ExternalID(), ""}}
	for _, p := range c.Parameters {
		rows = append(rows, []string{p.TagID(), p.ScriptLabelEN(), c.ComponentTag(), "", p.MaterialExtID()})
	}
	return rows
}

func (c *ComponentDefinition) WriteTagsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tagsCSVHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(c.TagRows()); err != nil {
		return err
	}
	return cw.Error()
}
