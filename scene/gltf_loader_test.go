package scene

import (
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-pipeline/math"
)

func triangleDocument() (*gltf.Document, int) {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	return doc, pos
}

func TestLoadGLTFDocument(t *testing.T) {
	doc, pos := triangleDocument()
	norm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: "Shiny",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0.5, 0.25, 1},
			MetallicFactor:  gltf.Float(1),
			RoughnessFactor: gltf.Float(0),
		},
	})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "Tri",
		Primitives: []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{
				"POSITION":   pos,
				"NORMAL":     norm,
				"TEXCOORD_0": uv,
			},
			Indices:  gltf.Index(idx),
			Material: gltf.Index(0),
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:        "TriNode",
		Mesh:        gltf.Index(0),
		Translation: [3]float64{2, 0, -1},
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	result, err := loadGLTFDocument(doc, ".")
	require.NoError(t, err)
	require.Len(t, result.Roots, 1)
	assert.Empty(t, result.Textures)

	n := result.Roots[0]
	assert.Equal(t, "TriNode", n.Name)
	assert.InDelta(t, 2, n.Transform.Position.X, 1e-6)
	assert.InDelta(t, -1, n.Transform.Position.Z, 1e-6)

	require.NotNil(t, n.Mesh)
	require.Len(t, n.Mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, n.Mesh.Indices)

	v := n.Mesh.Vertices[1]
	assert.InDelta(t, 1, v.Position.X, 1e-6)
	assert.InDelta(t, 1, v.Normal.Z, 1e-6)
	assert.InDelta(t, 1, v.UV.X, 1e-6)

	mat := n.Mesh.Material
	require.NotNil(t, mat)
	assert.Equal(t, "Shiny", mat.Name)
	assert.InDelta(t, 0.5, mat.Albedo.G, 1e-6)
	// roughness 0 maps to max shininess, metallic 1 to 0.7 specular
	assert.InDelta(t, 129, mat.Shininess, 1e-3)
	assert.InDelta(t, 0.7, mat.Specular.R, 1e-6)
}

func TestLoadGLTFDocumentDefaults(t *testing.T) {
	doc, pos := triangleDocument()
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{"POSITION": pos},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	result, err := loadGLTFDocument(doc, ".")
	require.NoError(t, err)
	require.Len(t, result.Roots, 1)

	n := result.Roots[0]
	assert.Equal(t, "node_0", n.Name)

	require.NotNil(t, n.Mesh)
	require.Len(t, n.Mesh.Vertices, 3)
	assert.Empty(t, n.Mesh.Indices)
	assert.Nil(t, n.Mesh.Material)

	// Missing NORMAL attribute falls back to an up-facing normal.
	assert.Equal(t, math.Vec3Up, n.Mesh.Vertices[0].Normal)

	// TRS defaults: identity transform.
	assert.InDelta(t, 0, n.Transform.Position.X, 1e-6)
	assert.InDelta(t, 1, n.Transform.Scale.Y, 1e-6)
	assert.InDelta(t, 1, n.Transform.Rotation.W, 1e-6)
}

func TestLoadGLTFDocumentSkipsPrimitiveWithoutPositions(t *testing.T) {
	doc := gltf.NewDocument()
	norm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Attributes: gltf.PrimitiveAttributes{"NORMAL": norm},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Empty", Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	result, err := loadGLTFDocument(doc, ".")
	require.NoError(t, err)
	require.Len(t, result.Roots, 1)
	assert.Nil(t, result.Roots[0].Mesh, "a primitive without positions is dropped")
}
