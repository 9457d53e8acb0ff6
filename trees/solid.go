// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trees

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"github.com/rotisserie/eris"

	"m4o.io/citymesh/mesh"
)

// Crown is the shape of a tree's crown.
type Crown uint8

const (
	ConeCrown Crown = iota
	IcoCrown
	SphereCrown
)

func (c Crown) String() string {
	switch c {
	case ConeCrown:
		return "cone"
	case IcoCrown:
		return "icosphere"
	case SphereCrown:
		return "sphere"
	default:
		return fmt.Sprintf("Crown(%d)", uint8(c))
	}
}

const (
	// trunkSink is how far a trunk reaches below the ground.
	trunkSink = 0.2

	// crownSink is how far a crown reaches down into the trunk.
	crownSink = 0.3

	icoSubdivisions = 2
)

// Params are the dimensions of a single tree.
type Params struct {
	Crown Crown

	TrunkHeight   float64
	TrunkRadius   float64
	TrunkSegments int

	// CrownHeight is only used by cone crowns.
	CrownHeight   float64
	CrownRadius   float64
	CrownSegments int
	CrownRings    int
}

// Planter draws random tree parameters. A Planter is not safe for
// concurrent use.
type Planter struct {
	rnd *rand.Rand
}

// NewPlanter returns a reproducible Planter.
func NewPlanter(seed uint64) *Planter {
	return &Planter{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Params draws the dimensions of the next tree.
func (p *Planter) Params() Params {
	params := Params{
		Crown:         Crown(p.rnd.IntN(3)),
		TrunkHeight:   p.uniform(2, 4.4),
		TrunkRadius:   p.uniform(0.2, 0.35),
		TrunkSegments: p.intn(7, 16),
	}

	switch params.Crown {
	case ConeCrown:
		params.CrownHeight = p.uniform(2.7, 8)
		params.CrownSegments = p.intn(7, 50)
		params.CrownRadius = p.uniform(1.3, 2.1)
	case IcoCrown:
		params.CrownRadius = p.uniform(1.5, 2.5)
	case SphereCrown:
		params.CrownRadius = p.uniform(1.5, 2.5)
		params.CrownSegments = p.intn(7, 24)
		params.CrownRings = p.intn(6, 14)
	}

	return params
}

// Plant builds a tree standing on the lowest ground under it. A nil ground
// plants at z=0.
func (p *Planter) Plant(t Tree, ground mesh.Ground) (*mesh.Solid, error) {
	var base float64

	if ground != nil {
		lo, _, err := ground.LowestAndHighest([]r3.Vector{{X: t.Position.X(), Y: t.Position.Y()}})
		if err != nil {
			return nil, eris.Wrapf(err, "planting tree %d", t.ID)
		}

		base = lo
	}

	s, err := Build(p.Params())
	if err != nil {
		return nil, eris.Wrapf(err, "building tree %d", t.ID)
	}

	s.Name = fmt.Sprintf("Tree %d", t.ID)
	s.Offset = r3.Vector{X: t.Position.X(), Y: t.Position.Y(), Z: base}

	return s, nil
}

// Build creates a tree solid with its foot at the local origin: a trunk
// frustum sunk slightly into the ground and a crown resting on top of it.
func Build(p Params) (*mesh.Solid, error) {
	if !(p.TrunkHeight > trunkSink) || !(p.TrunkRadius > 0) || p.TrunkSegments < 3 {
		return nil, eris.Errorf("invalid trunk %+v", p)
	}

	s := &mesh.Solid{Kind: mesh.TreeKind}

	top := p.TrunkHeight - trunkSink
	merge(s, frustum(p.TrunkSegments, p.TrunkRadius, p.TrunkRadius*0.75, -trunkSink, top))

	switch p.Crown {
	case ConeCrown:
		if !(p.CrownHeight > 0) || !(p.CrownRadius > 0) || p.CrownSegments < 3 {
			return nil, eris.Errorf("invalid cone crown %+v", p)
		}

		bottom := top - crownSink
		merge(s, frustum(p.CrownSegments, p.CrownRadius, 0, bottom, bottom+p.CrownHeight))
	case IcoCrown:
		if !(p.CrownRadius > 0) {
			return nil, eris.Errorf("invalid icosphere crown %+v", p)
		}

		merge(s, icosphere(icoSubdivisions, p.CrownRadius, top+p.CrownRadius-crownSink))
	case SphereCrown:
		if !(p.CrownRadius > 0) || p.CrownSegments < 3 || p.CrownRings < 2 {
			return nil, eris.Errorf("invalid sphere crown %+v", p)
		}

		merge(s, uvSphere(p.CrownSegments, p.CrownRings, p.CrownRadius, top+p.CrownRadius-crownSink))
	default:
		return nil, eris.Errorf("unknown crown %s", p.Crown)
	}

	return s, nil
}

func (p *Planter) uniform(lo, hi float64) float64 {
	return lo + p.rnd.Float64()*(hi-lo)
}

// intn draws from [lo, hi], both ends included.
func (p *Planter) intn(lo, hi int) int {
	return lo + p.rnd.IntN(hi-lo+1)
}

type part struct {
	verts []r3.Vector
	faces [][]int
}

func merge(s *mesh.Solid, p part) {
	base := len(s.Vertices)
	s.Vertices = append(s.Vertices, p.verts...)

	for _, f := range p.faces {
		g := make([]int, len(f))
		for i, v := range f {
			g[i] = base + v
		}

		s.Faces = append(s.Faces, g)
	}
}

// frustum is a truncated cone between z0 and z1. A zero top radius closes
// it into a cone with a single apex.
func frustum(segments int, r0, r1, z0, z1 float64) part {
	var p part

	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		p.verts = append(p.verts, r3.Vector{X: r0 * math.Cos(a), Y: r0 * math.Sin(a), Z: z0})
	}

	bottom := make([]int, segments)
	for i := range bottom {
		bottom[i] = segments - 1 - i
	}

	if r1 == 0 {
		apex := len(p.verts)
		p.verts = append(p.verts, r3.Vector{Z: z1})

		for i := 0; i < segments; i++ {
			p.faces = append(p.faces, []int{i, (i + 1) % segments, apex})
		}

		p.faces = append(p.faces, bottom)

		return p
	}

	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		p.verts = append(p.verts, r3.Vector{X: r1 * math.Cos(a), Y: r1 * math.Sin(a), Z: z1})
	}

	top := make([]int, segments)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		p.faces = append(p.faces, []int{i, j, segments + j, segments + i})
		top[i] = segments + i
	}

	p.faces = append(p.faces, bottom, top)

	return p
}

// uvSphere has a pole at each end and rings-1 latitude rings in between.
func uvSphere(segments, rings int, radius, z float64) part {
	var p part

	p.verts = append(p.verts, r3.Vector{Z: z + radius})

	for r := 1; r < rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			p.verts = append(p.verts, r3.Vector{
				X: radius * math.Sin(phi) * math.Cos(theta),
				Y: radius * math.Sin(phi) * math.Sin(theta),
				Z: z + radius*math.Cos(phi),
			})
		}
	}

	south := len(p.verts)
	p.verts = append(p.verts, r3.Vector{Z: z - radius})

	at := func(r, s int) int { return 1 + (r-1)*segments + s%segments }

	for s := 0; s < segments; s++ {
		p.faces = append(p.faces, []int{0, at(1, s), at(1, s+1)})
	}

	for r := 1; r < rings-1; r++ {
		for s := 0; s < segments; s++ {
			p.faces = append(p.faces, []int{at(r, s), at(r+1, s), at(r+1, s+1), at(r, s+1)})
		}
	}

	for s := 0; s < segments; s++ {
		p.faces = append(p.faces, []int{south, at(rings-1, s+1), at(rings-1, s)})
	}

	return p
}

// icosphere subdivides an icosahedron standing on one of its vertices
// subdivisions-1 times and pushes every vertex onto the sphere.
func icosphere(subdivisions int, radius, z float64) part {
	verts := []r3.Vector{{Z: 1}}

	ringZ, ringR := 1/math.Sqrt(5), 2/math.Sqrt(5)
	for i := 0; i < 5; i++ {
		a := 2 * math.Pi * float64(i) / 5
		verts = append(verts, r3.Vector{X: ringR * math.Cos(a), Y: ringR * math.Sin(a), Z: ringZ})
	}

	for i := 0; i < 5; i++ {
		a := 2*math.Pi*float64(i)/5 + math.Pi/5
		verts = append(verts, r3.Vector{X: ringR * math.Cos(a), Y: ringR * math.Sin(a), Z: -ringZ})
	}

	verts = append(verts, r3.Vector{Z: -1})

	faces := make([][]int, 0, 20)
	for i := 0; i < 5; i++ {
		j := (i + 1) % 5
		upper, nextUpper := 1+i, 1+j
		lower, nextLower := 6+i, 6+j

		faces = append(faces,
			[]int{0, upper, nextUpper},
			[]int{upper, lower, nextUpper},
			[]int{nextUpper, lower, nextLower},
			[]int{11, nextLower, lower})
	}

	for n := 1; n < subdivisions; n++ {
		mid := make(map[[2]int]int)

		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := mid[key]; ok {
				return i
			}

			verts = append(verts, verts[a].Add(verts[b]).Normalize())
			mid[key] = len(verts) - 1

			return mid[key]
		}

		next := make([][]int, 0, 4*len(faces))
		for _, f := range faces {
			ab, bc, ca := midpoint(f[0], f[1]), midpoint(f[1], f[2]), midpoint(f[2], f[0])
			next = append(next,
				[]int{f[0], ab, ca},
				[]int{f[1], bc, ab},
				[]int{f[2], ca, bc},
				[]int{ab, bc, ca})
		}

		faces = next
	}

	for i := range verts {
		verts[i] = verts[i].Mul(radius).Add(r3.Vector{Z: z})
	}

	return part{verts: verts, faces: faces}
}
