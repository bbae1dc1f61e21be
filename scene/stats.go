package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of the registry contents.
func (r *Registry) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Primitive", "Type", "Vertices", "Faces", "Size"})

	var totalFaces int
	for _, kv := range r.objects.Order {
		p := kv.Val
		totalFaces += p.FaceCount()
		table.Append([]string{
			kv.Key,
			p.Type.String(),
			fmt.Sprintf("%d", len(p.Vertices)),
			fmt.Sprintf("%d", p.FaceCount()),
			fmtSize(p.Vertices, p.VertexNormals, p.VertexTangents, p.Triangles, p.MaterialUV, p.MaterialID),
		})
	}

	merged := "---"
	if geom := r.Geometry(); geom != nil {
		merged = strings.TrimLeft(fmtSize(geom.Vertices, geom.VertexNormals, geom.VertexTangents, geom.Triangles, geom.MaterialUV, geom.MaterialID, geom.PrimitiveTypes, geom.RefractiveIndex), " ")
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d primitives", r.objects.Len()),
		fmt.Sprintf("%d materials", len(r.materials)),
		"",
		fmt.Sprintf("%d", totalFaces),
		merged,
	})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%3.1f mb", totalBytes/1e6)
}
