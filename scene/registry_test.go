package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/achilleasa/playground/types"
)

type mockBuilder struct {
	builds      int
	lastVerts   []types.Vec3
	lastFaces   [][3]int32
	lastRebuild bool
	err         error
}

func (b *mockBuilder) BuildMeshAcc(vertices []types.Vec3, faces [][3]int32, rebuild, allowUpdate bool) error {
	if b.err != nil {
		return b.err
	}
	b.builds++
	b.lastVerts = vertices
	b.lastFaces = faces
	b.lastRebuild = rebuild
	return nil
}

type mockLoader struct {
	mesh  *Mesh
	loads int
}

func (l *mockLoader) Load(path string) (*Mesh, error) {
	l.loads++
	clone := *l.mesh
	clone.MaterialAssignments = append([]int32(nil), l.mesh.MaterialAssignments...)
	return &clone, nil
}

func newTestRegistry(t *testing.T, sceneScale types.Vec3) *Registry {
	catalog, err := NewCatalog("", nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewRegistry(catalog, sceneScale)
}

func TestDirtyPropagation(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})
	builder := &mockBuilder{}

	type spec struct {
		mutate func() error
	}

	var quad string
	specs := []spec{
		{func() (err error) { quad, err = reg.AddPrimitive(QuadGeometry, GlassPrimitive); return }},
		{func() error { _, err := reg.DuplicatePrimitive(quad); return err }},
		{func() error { return reg.RemovePrimitive(quad) }},
		{func() error { return reg.Update("Quad 2", func(p *Primitive) { p.Type = MirrorPrimitive }) }},
	}

	for index, s := range specs {
		if err := s.mutate(); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if !reg.IsDirty() {
			t.Fatalf("[spec %d] expected registry to be dirty", index)
		}

		expBuilds := builder.builds + 1
		rebuilt, err := reg.RebuildIfNeeded(builder, false, true)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if !rebuilt || builder.builds != expBuilds {
			t.Fatalf("[spec %d] expected a rebuild", index)
		}

		rebuilt, _ = reg.RebuildIfNeeded(builder, false, true)
		if rebuilt || builder.builds != expBuilds {
			t.Fatalf("[spec %d] expected second call to skip the rebuild", index)
		}
	}

	// force always rebuilds
	if rebuilt, _ := reg.RebuildIfNeeded(builder, true, false); !rebuilt || builder.lastRebuild {
		t.Fatal("expected forced rebuild honoring the rebuild flag")
	}
}

func TestPlaceholderGeometry(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})
	builder := &mockBuilder{}

	name, _ := reg.AddPrimitive(QuadGeometry, NonePrimitive)
	if reg.HasVisibleObjects() {
		t.Fatal("expected primitives of type None to be invisible")
	}

	if _, err := reg.RebuildIfNeeded(builder, false, false); err != nil {
		t.Fatal(err)
	}
	if len(builder.lastVerts) != 3 || len(builder.lastFaces) != 1 || builder.lastFaces[0] != [3]int32{} {
		t.Fatalf("expected degenerate placeholder triangle; got %d vertices, %v faces", len(builder.lastVerts), builder.lastFaces)
	}
	if !builder.lastRebuild {
		t.Fatal("expected placeholder build to request a full rebuild")
	}
	if reg.IsDirty() || reg.Geometry() != nil {
		t.Fatal("expected a clean registry without merged geometry")
	}

	_ = reg.Update(name, func(p *Primitive) { p.Type = DiffuseMeshPrimitive })
	if _, err := reg.RebuildIfNeeded(builder, false, false); err != nil {
		t.Fatal(err)
	}
	if reg.Geometry() == nil || reg.Geometry().FaceCount() != 2 {
		t.Fatal("expected merged geometry with 2 faces")
	}
}

func TestRebuildFailureKeepsDirty(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})
	expErr := errors.New("accelerator failure")
	builder := &mockBuilder{err: expErr}

	_, _ = reg.AddPrimitive(QuadGeometry, MirrorPrimitive)
	if _, err := reg.RebuildIfNeeded(builder, false, true); !errors.Is(err, expErr) {
		t.Fatalf("expected builder error to propagate; got %v", err)
	}
	if !reg.IsDirty() {
		t.Fatal("expected registry to remain dirty after a failed rebuild")
	}
}

func TestUnknownGeometry(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})
	if _, err := reg.AddPrimitive("Teapot", GlassPrimitive); !errors.Is(err, ErrUnknownGeometry) {
		t.Fatalf("expected ErrUnknownGeometry; got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatal("expected registry to remain empty")
	}

	if err := reg.RemovePrimitive("Quad 1"); !errors.Is(err, ErrUnknownPrimitive) {
		t.Fatalf("expected ErrUnknownPrimitive; got %v", err)
	}
	if _, err := reg.DuplicatePrimitive("Quad 1"); !errors.Is(err, ErrUnknownPrimitive) {
		t.Fatalf("expected ErrUnknownPrimitive; got %v", err)
	}
}

func TestInstanceNamesNeverReused(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})

	n1, _ := reg.AddPrimitive(QuadGeometry, GlassPrimitive)
	n2, _ := reg.AddPrimitive(QuadGeometry, MirrorPrimitive)
	if err := reg.RemovePrimitive(n2); err != nil {
		t.Fatal(err)
	}
	n3, _ := reg.DuplicatePrimitive(n1)
	n4, _ := reg.AddPrimitive(QuadGeometry, GlassPrimitive)

	exp := []string{"Quad 1", "Quad 2", "Quad 3", "Quad 4"}
	for index, got := range []string{n1, n2, n3, n4} {
		if got != exp[index] {
			t.Fatalf("expected name %q; got %q", exp[index], got)
		}
	}

	names := reg.Names()
	if len(names) != 3 || names[0] != "Quad 1" || names[1] != "Quad 3" || names[2] != "Quad 4" {
		t.Fatalf("unexpected primitive order %v", names)
	}
}

func TestDuplicateIsDeepCopy(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})
	src, _ := reg.AddPrimitive(QuadGeometry, GlassPrimitive)
	dup, _ := reg.DuplicatePrimitive(src)

	_ = reg.Update(dup, func(p *Primitive) {
		p.Vertices[0] = types.XYZ(100, 100, 100)
		p.Transform.Scale(10)
		p.RefractiveIndex = 2
	})

	srcPrim, _ := reg.Primitive(src)
	if srcPrim.Vertices[0] == types.XYZ(100, 100, 100) {
		t.Fatal("expected vertex buffers not to be shared")
	}
	if srcPrim.Transform.ScaleFactors[0] >= 1 {
		t.Fatalf("expected source transform to be unaffected; got %v", srcPrim.Transform.ScaleFactors)
	}
	if srcPrim.RefractiveIndex != DefaultRefractiveIndex {
		t.Fatal("expected source refractive index to be unaffected")
	}
}

func TestScalingPolicy(t *testing.T) {
	type spec struct {
		sceneScale types.Vec3
		expScale   float32
	}

	// The quad spans 2 units on its largest axis.
	const meshExtent = 2.0
	specs := []spec{
		{types.Vec3{}, 0.5 * 1 / meshExtent},
		{types.XYZ(4, 2, 1), 0.5 * 4 / meshExtent},
		{types.XYZ(5, 5, 5), 0.5 * 5 / meshExtent},
		{types.XYZ(5.5, 1, 1), 1 / meshExtent},
		{types.XYZ(100, 1, 1), 1 / meshExtent},
	}

	for index, s := range specs {
		reg := newTestRegistry(t, s.sceneScale)
		name, err := reg.AddPrimitive(QuadGeometry, GlassPrimitive)
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		prim, _ := reg.Primitive(name)
		for axis := 0; axis < 3; axis++ {
			if got := prim.Transform.ScaleFactors[axis]; math.Abs(float64(got-s.expScale)) > 1e-6 {
				t.Fatalf("[spec %d] expected scale %f on axis %d; got %f", index, s.expScale, axis, got)
			}
		}
	}
}

func TestPrimitiveDefaults(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})
	name, _ := reg.AddPrimitive(QuadGeometry, GlassPrimitive)
	prim, _ := reg.Primitive(name)

	if prim.RefractiveIndex != 1.33 {
		t.Fatalf("expected refractive index 1.33; got %f", prim.RefractiveIndex)
	}
	if len(prim.ReflectanceScatter) != 2 || prim.ReflectanceScatter[0] != 0 {
		t.Fatal("expected zero per-face reflectance")
	}
	for i, has := range prim.HasTangents {
		if !has {
			t.Fatalf("expected procedural quad vertex %d to have a tangent", i)
		}
	}
	if prim.Triangles[1] != [3]int32{2, 1, 3} {
		t.Fatalf("unexpected quad faces %v", prim.Triangles)
	}
}

func TestMergedBuffers(t *testing.T) {
	reg := newTestRegistry(t, types.XYZ(100, 100, 100))
	builder := &mockBuilder{}

	a, _ := reg.AddPrimitive(QuadGeometry, MirrorPrimitive)
	_, _ = reg.AddPrimitive(QuadGeometry, NonePrimitive)
	c, _ := reg.AddPrimitive(QuadGeometry, GlassPrimitive)
	_ = reg.Update(c, func(p *Primitive) {
		p.RefractiveIndex = 1.5
		p.Transform.Translate([3]float32{1, 0, 0})
	})
	_ = a

	if _, err := reg.RebuildIfNeeded(builder, false, true); err != nil {
		t.Fatal(err)
	}
	geom := reg.Geometry()

	if len(geom.Vertices) != 8 || geom.FaceCount() != 4 {
		t.Fatalf("expected 8 vertices and 4 faces; got %d and %d", len(geom.Vertices), geom.FaceCount())
	}
	if geom.Triangles[2] != [3]int32{4, 5, 6} {
		t.Fatalf("expected second primitive faces to be offset; got %v", geom.Triangles[2])
	}

	expTypes := []PrimitiveType{MirrorPrimitive, MirrorPrimitive, GlassPrimitive, GlassPrimitive}
	expIOR := []float32{1.33, 1.33, 1.5, 1.5}
	for i := range expTypes {
		if geom.PrimitiveTypes[i] != expTypes[i] || geom.RefractiveIndex[i] != expIOR[i] {
			t.Fatalf("face %d: expected (%s, %f); got (%s, %f)", i, expTypes[i], expIOR[i], geom.PrimitiveTypes[i], geom.RefractiveIndex[i])
		}
	}

	// world space: unit scale quad at z = 2.5 * 0.5, translated by +1 on x
	if !types.ApproxEqual(geom.Vertices[4], types.XYZ(0.5, -0.5, 1.25), 1e-5) {
		t.Fatalf("unexpected transformed vertex %v", geom.Vertices[4])
	}
	for i, n := range geom.VertexNormals {
		if l := n.Len(); math.Abs(float64(l-1)) > 1e-5 {
			t.Fatalf("expected normal %d to be unit length; got %f", i, l)
		}
	}
}

func TestMaterialRegistration(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})

	specs := []MaterialSpec{NewMaterialSpec("wood"), NewMaterialSpec("metal")}
	ids := reg.RegisterMaterials(specs, "Chair")
	if ids[0] != 2 || ids[1] != 3 {
		t.Fatalf("expected ids [2 3]; got %v", ids)
	}

	again := reg.RegisterMaterials([]MaterialSpec{specs[1], specs[0]}, "Chair")
	if again[0] != 3 || again[1] != 2 {
		t.Fatalf("expected re-registration to resolve existing ids; got %v", again)
	}

	other := reg.RegisterMaterials(specs[:1], "Table")
	if other[0] != 4 {
		t.Fatalf("expected a new id for a different namespace; got %v", other)
	}

	sorted := reg.SortedMaterials()
	if len(sorted) != 5 {
		t.Fatalf("expected 5 materials; got %d", len(sorted))
	}
	for i, mat := range sorted {
		if mat.ID != int32(i) {
			t.Fatalf("expected materials sorted by id; got id %d at %d", mat.ID, i)
		}
	}
	if _, ok := reg.Material("Chair$wood"); !ok {
		t.Fatal("expected namespaced material key")
	}
}

func TestDefaultMaterials(t *testing.T) {
	reg := newTestRegistry(t, types.Vec3{})

	solid, _ := reg.Material(SolidMaterialName)
	if solid.ID != 0 || solid.DiffuseMap.Width != 2 {
		t.Fatal("unexpected solid material")
	}
	if px := solid.DiffuseMap.At(1, 1); px[0] != 130/255.0 || px[2] != 1 {
		t.Fatalf("unexpected solid color %v", px)
	}

	checkboard, _ := reg.Material(CheckboardMaterialName)
	if checkboard.ID != 1 || checkboard.DiffuseMap.Width != 512 {
		t.Fatal("unexpected checkboard material")
	}
	if px := checkboard.DiffuseMap.At(0, 0); px[0] != 0.5 {
		t.Fatalf("expected first square to be light; got %v", px)
	}
	if px := checkboard.DiffuseMap.At(20, 0); px[0] != 0.25 {
		t.Fatalf("expected second square to be dark; got %v", px)
	}
	if px := checkboard.DiffuseMap.At(0, 20); px[0] != 0.25 {
		t.Fatalf("expected second row to be offset; got %v", px)
	}
}
