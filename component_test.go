package roomle

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func componentSession() *ExportSession {
	opts := DefaultOptions()
	opts.CatalogID, opts.ComponentID = "cat", "comp"
	return NewExportSession(opts)
}

// TestAssembleComponent 测试材质替换为参数
func TestAssembleComponent(t *testing.T) {
	s := componentSession()
	script := "SetObjSurface('wood');\nAddMesh(Vector3f[{0,0,0}],[0,0,0]);\nSetObjSurface('metal');\nSetObjSurface('wood');"
	def, err := s.AssembleComponent(script)
	require.NoError(t, err)

	assert.Equal(t, "SetObjSurface(material_001);\nAddMesh(Vector3f[{0,0,0}],[0,0,0]);\nSetObjSurface(material_002);\nSetObjSurface(material_001);", def.Script)
	require.Len(t, def.Parameters, 2)
	p := def.Parameters[0]
	assert.Equal(t, "material_001", p.Key())
	assert.Equal(t, "comp_wood_cat", p.TagID())
	assert.Equal(t, "cat:comp_wood", p.MaterialExtID())
	assert.Equal(t, "material_002", def.Parameters[1].Key())
	assert.Equal(t, "cat:comp", def.ExternalID())
}

// TestAssembleComponentCounter 测试参数编号在会话内连续
func TestAssembleComponentCounter(t *testing.T) {
	s := componentSession()
	_, err := s.AssembleComponent("SetObjSurface('a');")
	require.NoError(t, err)
	def, err := s.AssembleComponent("SetObjSurface('b');")
	require.NoError(t, err)
	assert.Equal(t, "SetObjSurface(material_002);", def.Script)

	def, err = componentSession().AssembleComponent("SetObjSurface('b');")
	require.NoError(t, err)
	assert.Equal(t, "SetObjSurface(material_001);", def.Script)
}

// TestAssembleComponentLabels 测试带目录前缀的材质名
func TestAssembleComponentLabels(t *testing.T) {
	def, err := componentSession().AssembleComponent("SetObjSurface('other:dark_wood');")
	require.NoError(t, err)
	require.Len(t, def.Parameters, 1)
	p := def.Parameters[0]
	assert.Equal(t, "dark_wood", p.MaterialID)
	assert.Equal(t, "dark wood", p.ScriptLabelEN())
	assert.Equal(t, "dark wood (comp)", p.LabelEN())
}

// TestAssembleComponentMalformed 测试格式错误的材质语句
func TestAssembleComponentMalformed(t *testing.T) {
	for _, script := range []string{
		"AddMesh();\nSetObjSurface('wood);",
		"SetObjSurface('a','b');",
	} {
		_, err := componentSession().AssembleComponent(script)
		assert.ErrorIs(t, err, ErrMalformedSurface)
	}
	_, err := componentSession().AssembleComponent("AddMesh();\nSetObjSurface('wood);")
	assert.Contains(t, err.Error(), "line 2")

	def, err := componentSession().AssembleComponent("  SetObjSurface('x');")
	require.NoError(t, err)
	assert.Empty(t, def.Parameters)
}

// TestComponentJSON 测试组件定义输出
func TestComponentJSON(t *testing.T) {
	def, err := componentSession().AssembleComponent("SetObjSurface('wood');")
	require.NoError(t, err)
	js, err := def.JSON()
	require.NoError(t, err)
	assert.Equal(t, `{
    "id": "cat:comp",
    "parameters": [
        {
            "key": "material_001",
            "type": "Material",
            "labels": {
                "en": "wood"
            },
            "defaultValue": "cat:comp_wood",
            "validGroups": [
                "comp_wood_cat"
            ]
        }
    ],
    "geometry": "SetObjSurface(material_001);"
}`, js)

	empty := &ComponentDefinition{CatalogID: "cat", ComponentID: "comp", Script: "<a>"}
	js, err = empty.JSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"parameters": []`)
	assert.Contains(t, js, `"geometry": "<a>"`)
}

// TestTagsCSV 测试标签表格
func TestTagsCSV(t *testing.T) {
	def, err := componentSession().AssembleComponent("SetObjSurface('wood');\nSetObjSurface('metal');")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, def.WriteTagsCSV(&buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"tag_id", "label_en", "parent_tag_ids_to_add", "component_ids_to_add", "material_ids_to_add"},
		{"comp_cat", "comp", "", "cat:comp", ""},
		{"comp_wood_cat", "wood", "comp_cat", "", "cat:comp_wood"},
		{"comp_metal_cat", "metal", "comp_cat", "", "cat:comp_metal"},
	}, rows)
}
