package constraint

import "github.com/go-gl/mathgl/mgl64"

// Vec6 is a row of the Jacobian for one body, or the matching generalized velocity
type Vec6 struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

func (v Vec6) Dot(o Vec6) float64 {
	return v.Linear.Dot(o.Linear) + v.Angular.Dot(o.Angular)
}

func (v Vec6) Add(o Vec6) Vec6 {
	return Vec6{v.Linear.Add(o.Linear), v.Angular.Add(o.Angular)}
}

func (v Vec6) Mul(s float64) Vec6 {
	return Vec6{v.Linear.Mul(s), v.Angular.Mul(s)}
}

func (v Vec6) Elem(i int) float64 {
	if i < 3 {
		return v.Linear[i]
	}

	return v.Angular[i-3]
}

// Mat6 is a row major 6x6 matrix acting on Vec6
type Mat6 [6][6]float64

// InverseMassMatrix returns the block diagonal generalized inverse mass of a body
func InverseMassMatrix(invMass float64, invInertia mgl64.Mat3) Mat6 {
	var m Mat6
	for i := 0; i < 3; i++ {
		m[i][i] = invMass
		for j := 0; j < 3; j++ {
			m[3+i][3+j] = invInertia.At(i, j)
		}
	}

	return m
}

func (m *Mat6) Mul6x1(v Vec6) Vec6 {
	var out [6]float64
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[i] += m[i][j] * v.Elem(j)
		}
	}

	return Vec6{
		Linear:  mgl64.Vec3{out[0], out[1], out[2]},
		Angular: mgl64.Vec3{out[3], out[4], out[5]},
	}
}
