package nodegraph

import (
	"fmt"

	"github.com/chazu/lumen/pkg/vec"
)

// Role describes the shape of a terminal: its component count, the value
// used when an input is left unconnected, and the swizzle that maps it into
// the canonical 4-component value passed between nodes.
type Role struct {
	Width   int
	Default vec.Vec4
	Swizzle string
}

// Vec1 is a scalar role.
func Vec1(f float64) Role {
	return Role{Width: 1, Default: vec.XYZW(f, 0, 0, 0), Swizzle: "x"}
}

// Vec2 is a two-component role.
func Vec2(x, y float64) Role {
	return Role{Width: 2, Default: vec.XYZW(x, y, 0, 0), Swizzle: "xy"}
}

// Vec3 is a three-component role.
func Vec3(x, y, z float64) Role {
	return Role{Width: 3, Default: vec.XYZW(x, y, z, 0), Swizzle: "xyz"}
}

// Vec4 is a four-component role.
func Vec4(x, y, z, w float64) Role {
	return Role{Width: 4, Default: vec.XYZW(x, y, z, w), Swizzle: "xyzw"}
}

// Len returns the number of components the role carries.
func (r Role) Len() int {
	return r.Width
}

// Swizzled returns a copy of r reading from the given components.
func (r Role) Swizzled(s string) Role {
	r.Swizzle = s
	return r
}

func (r Role) String() string {
	return fmt.Sprintf("vec%d.%s", r.Width, r.Swizzle)
}

// Extract selects the role's components out of a canonical value. Component
// i reads swizzle[i]; past the end of the swizzle it reads position i.
func (r Role) Extract(v vec.Vec4) vec.Vec4 {
	var out vec.Vec4
	for i := 0; i < r.Width && i < 4; i++ {
		c := i
		if i < len(r.Swizzle) {
			c = component(r.Swizzle[i])
		}
		out[i] = v[c]
	}
	return out
}

// Retype converts a value of width from into r's width. Narrowing drops
// trailing components. A scalar widens by filling the first three
// components; wider values are padded from r's default.
func (r Role) Retype(v vec.Vec4, from int) vec.Vec4 {
	out := r.Default
	switch {
	case from >= r.Width:
		for i := 0; i < r.Width; i++ {
			out[i] = v[i]
		}
	case from == 1:
		for i := 0; i < r.Width && i < 3; i++ {
			out[i] = v[0]
		}
	default:
		for i := 0; i < from; i++ {
			out[i] = v[i]
		}
	}
	return out
}

func component(c byte) int {
	switch c {
	case 'y', 'g':
		return 1
	case 'z', 'b':
		return 2
	case 'w', 'a':
		return 3
	}
	return 0
}

func validSwizzle(s string) bool {
	if len(s) == 0 || len(s) > 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'x', 'y', 'z', 'w', 'r', 'g', 'b', 'a':
		default:
			return false
		}
	}
	return true
}
