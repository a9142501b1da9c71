package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestFromAffine(t *testing.T) {
	m := FromAffine([12]float32{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		5, 6, 7,
	})
	if m != Translate(5, 6, 7) {
		t.Errorf("FromAffine() = %v, want translation matrix", m)
	}
	if m[15] != 1 || m[3] != 0 || m[7] != 0 || m[11] != 0 {
		t.Error("FromAffine() fourth row should be [0 0 0 1]")
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 2, 2))
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{12, 24, 36}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformDirection(Vec3{0, 1, 0})
	if got != (Vec3{0, 1, 0}) {
		t.Errorf("TransformDirection: got %v", got)
	}
}

func TestDecompose(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, 1.2)
	m := Translate(1, 2, 3).Mul(rot.ToMat4()).Mul(Scale(2, 3, 4))

	pos, gotRot, scale := m.Decompose()
	if !pos.ApproxEqual(Vec3{1, 2, 3}, 1e-5) {
		t.Errorf("position = %v, want (1,2,3)", pos)
	}
	if !scale.ApproxEqual(Vec3{2, 3, 4}, 1e-4) {
		t.Errorf("scale = %v, want (2,3,4)", scale)
	}
	// q and -q describe the same rotation
	d := gotRot.Dot(rot)
	if d < 0 {
		d = -d
	}
	if d < 0.9999 {
		t.Errorf("rotation = %v, want %v", gotRot, rot)
	}
}

func TestDecomposeZeroScaleAxis(t *testing.T) {
	_, rot, scale := Scale(0, 1, 1).Decompose()
	if scale.X != 0 {
		t.Errorf("scale.X = %v, want 0", scale.X)
	}
	if rot.Dot(rot) < 0.999 {
		t.Errorf("rotation should stay normalized, got %v", rot)
	}
}
