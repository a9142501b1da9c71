package formats

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/Faultbox/storm3d/pkg/encoding"
	"github.com/Faultbox/storm3d/pkg/math"
)

// sodReader is a forward-only little-endian cursor over a SOD buffer.
// The first short read latches an error; later reads return zero values
// so callers only need to check err() at record boundaries.
type sodReader struct {
	data    []byte
	off     int
	charset encoding.Charset
	fail    error
}

func newSODReader(data []byte, charset encoding.Charset) *sodReader {
	return &sodReader{data: data, charset: charset}
}

// err returns the latched read error, if any.
func (r *sodReader) err() error {
	return r.fail
}

// remaining returns the number of unread bytes.
func (r *sodReader) remaining() int {
	return len(r.data) - r.off
}

// take returns the next n bytes or latches ErrTruncatedSODData.
func (r *sodReader) take(n int) []byte {
	if r.fail != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.fail = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedSODData, n, r.off, r.remaining())
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *sodReader) readByte() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *sodReader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *sodReader) readU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *sodReader) readFloat32() float32 {
	return gomath.Float32frombits(r.readU32())
}

// readFixedString reads n raw bytes trimmed of NUL and space padding.
func (r *sodReader) readFixedString(n int) string {
	b := r.take(n)
	if b == nil {
		return ""
	}
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

// readIdentifier reads a u16 length prefix followed by that many bytes,
// right-trimmed of NUL.
func (r *sodReader) readIdentifier() string {
	n := int(r.readU16())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return encoding.TrimIdentifier(r.charset.Decode(b))
}

// readColorRGB reads three float32 channels; alpha is implicitly 1.
func (r *sodReader) readColorRGB() SODColor {
	return SODColor{R: r.readFloat32(), G: r.readFloat32(), B: r.readFloat32()}
}

// readVec3 reads three float32 values, mirroring X when negateX is set.
func (r *sodReader) readVec3(negateX bool) math.Vec3 {
	v := math.Vec3{X: r.readFloat32(), Y: r.readFloat32(), Z: r.readFloat32()}
	if negateX {
		v = v.NegateX()
	}
	return v
}

// readVec2 reads a texture coordinate and flips V.
func (r *sodReader) readVec2() math.Vec2 {
	v := math.Vec2{X: r.readFloat32(), Y: r.readFloat32()}
	return v.FlipV()
}

// readTransform reads twelve float32 values: three axis columns and a
// translation column.
func (r *sodReader) readTransform() math.Mat4 {
	var v [12]float32
	for i := range v {
		v[i] = r.readFloat32()
	}
	return math.FromAffine(v)
}
