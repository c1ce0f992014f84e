package roomle

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

const MATERIAL_CSV_TEXTURE_SLOTS = 4

var materialCSVHeader = func() []string {
	h := []string{"material_id", "label_en", "label_de", "shading", "thumbnail"}
	for i := 0; i < MATERIAL_CSV_TEXTURE_SLOTS; i++ {
		p := "tex" + strconv.Itoa(i) + "_"
		h = append(h, p+"tileable", p+"image", p+"mapping", p+"mmwidth", p+"mmheight")
	}
	return append(h, "tag_ids_to_add", "tag_ids_to_remove", "description_en", "active",
		"active_from", "active_till", "visibilityStatus", "sort", "properties")
}()

func MaterialCSVHeader() []string {
	return append([]string(nil), materialCSVHeader...)
}

// CSVRow renders m in MaterialCSVHeader column order.
func (m *MaterialRecord) CSVRow() ([]string, error) {
	sh, err := m.Shading().JSON()
	if err != nil {
		return nil, err
	}
	row := []string{m.ID, m.LabelEN, m.LabelDE, sh, ""}
	for i := 0; i < MATERIAL_CSV_TEXTURE_SLOTS; i++ {
		if i >= len(m.Textures) {
			row = append(row, "", "", "", "", "")
			continue
		}
		t := m.Textures[i]
		row = append(row,
			strconv.FormatBool(t.Tileable),
			t.ZipPath(),
			string(t.Mapping),
			strconv.Itoa(t.WidthMM),
			strconv.Itoa(t.HeightMM))
	}
	return append(row,
		strings.Join(m.TagIDsToAdd, ","),
		strings.Join(m.TagIDsToRemove, ","),
		"", "1", "", "", "", "", ""), nil
}

// WriteMaterialsCSV writes a header and one row per record.
func WriteMaterialsCSV(w io.Writer, recs []*MaterialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(materialCSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row, err := r.CSVRow()
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
