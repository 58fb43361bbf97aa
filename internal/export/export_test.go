package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/pkg/surface"
)

func render(t *testing.T, mutate func(s *scene.Scene)) *scene.Rendered {
	t.Helper()
	s := scene.Default()
	s.Steps = 4
	s.Field.Steps = 3
	if mutate != nil {
		mutate(s)
	}
	r, err := scene.Render(context.Background(), s, scene.RenderOptions{})
	require.NoError(t, err)
	return r
}

func countPrefix(t *testing.T, doc, prefix string) int {
	t.Helper()
	n := 0
	sc := bufio.NewScanner(strings.NewReader(doc))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), prefix) {
			n++
		}
	}
	return n
}

func TestWriteOBJ(t *testing.T) {
	r := render(t, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, r, OBJOptions{}))
	doc := buf.String()

	assert.Equal(t, surface.VertexCount(4), countPrefix(t, doc, "v "))
	assert.Equal(t, r.Mesh.Triangles(), countPrefix(t, doc, "f "))
	assert.Contains(t, doc, "# z = a*x^2 - b*y^2")
	assert.Contains(t, doc, "o surface\n")
	assert.NotContains(t, doc, "o tangent")
	assert.Contains(t, doc, "\nf 1 2 3\n")

	// First vertex: (x, z, y) = (-2, 4*1 - 4*1, -2) = (-2, 0, -2).
	assert.Contains(t, doc, "\nv -2.000000 0.000000 -2.000000 ")
}

func TestWriteOBJ_Tangent(t *testing.T) {
	r := render(t, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, r, OBJOptions{Tangent: true, Precision: 3}))
	doc := buf.String()

	n := surface.VertexCount(4)
	assert.Equal(t, n+4, countPrefix(t, doc, "v "))
	assert.Equal(t, r.Mesh.Triangles()+2, countPrefix(t, doc, "f "))
	assert.Contains(t, doc, "o tangent\n")
	// Tangent faces are 1-based and offset past the mesh vertices.
	assert.Contains(t, doc, "f 55 56 57\nf 55 57 58\n")
}

func TestWriteOBJ_Nil(t *testing.T) {
	assert.Error(t, WriteOBJ(&bytes.Buffer{}, nil, OBJOptions{}))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteOBJ_WriteError(t *testing.T) {
	s := scene.Default()
	s.Steps = 64
	r, err := scene.Render(context.Background(), s, scene.RenderOptions{})
	require.NoError(t, err)

	err = WriteOBJ(failWriter{}, r, OBJOptions{})
	assert.EqualError(t, err, "disk full")
}

func TestNewPayload(t *testing.T) {
	r := render(t, nil)
	p := NewPayload(r)

	assert.Equal(t, "a*x^2 - b*y^2", p.Expr)
	assert.Equal(t, []string{"a", "b"}, p.Symbols)

	assert.Equal(t, surface.VertexCount(4), p.Mesh.Count)
	assert.Len(t, p.Mesh.Positions, 3*p.Mesh.Count)
	assert.Len(t, p.Mesh.Colors, 3*p.Mesh.Count)

	require.NotNil(t, p.Tangent)
	assert.Len(t, p.Tangent.Positions, 12)
	assert.Equal(t, surface.QuadIndices, p.Tangent.Indices)
	assert.Equal(t, scene.DefaultArrowColor, p.Tangent.ArrowColor)

	assert.Equal(t, 9, p.Field.Count)
	assert.Len(t, p.Field.Origins, 27)
	assert.Len(t, p.Field.Directions, 27)
	assert.Len(t, p.Field.Lengths, 9)
	assert.Len(t, p.Field.Colors, 27)
}

func TestNewPayload_NoTangent(t *testing.T) {
	r := render(t, func(s *scene.Scene) { s.Tangent.Enabled = false })
	p := NewPayload(r)
	assert.Nil(t, p.Tangent)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, p))
	assert.NotContains(t, buf.String(), `"tangent"`)
}

func TestWriteJSON(t *testing.T) {
	r := render(t, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewPayload(r)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "mesh")
	assert.Contains(t, decoded, "field")
	assert.Contains(t, decoded, "tangent")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
