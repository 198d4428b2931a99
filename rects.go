package hwvg

import "github.com/gogpu/hwvg/gpucore"

// TexturedRect is one axis-aligned quad with explicit texture
// coordinates, used for image draws and glyph quads.
type TexturedRect struct {
	Dst Rect // destination in the caller's coordinate space
	Src Rect // normalized texture coordinates
}

// FillRects emits two triangles per rectangle with UVs already assigned.
// Empty rectangles are skipped. Coverage is 1 everywhere; rectangle
// edges are axis aligned and rely on the rasterizer for their edges.
func FillRects(rects []TexturedRect) *Mesh {
	mesh := &Mesh{}
	for _, r := range rects {
		if r.Dst.IsEmpty() {
			continue
		}
		base := uint32(len(mesh.Vertices))
		corners := [4][4]float64{
			{r.Dst.MinX, r.Dst.MinY, r.Src.MinX, r.Src.MinY},
			{r.Dst.MaxX, r.Dst.MinY, r.Src.MaxX, r.Src.MinY},
			{r.Dst.MaxX, r.Dst.MaxY, r.Src.MaxX, r.Src.MaxY},
			{r.Dst.MinX, r.Dst.MaxY, r.Src.MinX, r.Src.MaxY},
		}
		for _, c := range corners {
			mesh.Vertices = append(mesh.Vertices, gpucore.Vertex{
				Pos: [2]float32{float32(c[0]), float32(c[1])},
				UV:  [2]float32{float32(c[2]), float32(c[3])},
			})
			mesh.Coverage = append(mesh.Coverage, 1)
		}
		mesh.addTriangle(base, base+1, base+2)
		mesh.addTriangle(base, base+2, base+3)
	}
	return mesh
}
