package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// FloatsPerVertex is the interleaved layout: position, normal, uv.
const FloatsPerVertex = 8

// Interleave packs m into one position/normal/uv array per vertex. Meshes
// without UVs get zero texture coordinates.
func Interleave(m *mesh.Buffers) []float32 {
	out := make([]float32, 0, m.VertexCount()*FloatsPerVertex)
	for i, p := range m.Positions {
		n := m.Normals[i]
		var u, v float32
		if m.UVs != nil {
			u, v = m.UVs[i].X, m.UVs[i].Y
		}
		out = append(out, p.X, p.Y, p.Z, n.X, n.Y, n.Z, u, v)
	}
	return out
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of model.
func NormalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	return model.Mat3().Inv().Transpose()
}

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uModel;
uniform mat4 uViewProj;
uniform mat3 uNormalMatrix;

out vec3 vNormal;
out vec2 vUV;

void main() {
	vNormal = uNormalMatrix * aNormal;
	vUV = aUV;
	gl_Position = uViewProj * uModel * vec4(aPos, 1.0);
}
`

const fragmentShader = `
#version 410 core

in vec3 vNormal;
in vec2 vUV;

uniform vec3 uLightDir;
uniform vec3 uLightColor;
uniform vec3 uAmbient;
uniform vec3 uAlbedo;

out vec4 FragColor;

void main() {
	vec3 n = normalize(vNormal);
	float lambert = max(dot(n, normalize(uLightDir)), 0.0);
	// Faint checker so the UV layout is visible on the surface.
	float checker = mod(floor(vUV.x * 16.0) + floor(vUV.y * 8.0), 2.0) * 0.06;
	vec3 color = uAlbedo * (uAmbient + uLightColor * lambert) + checker;
	FragColor = vec4(color, 1.0);
}
`
