package vision

// Edges is a binary edge map in row-major order.
type Edges struct {
	W, H int
	Pix  []bool
}

func NewEdges(w, h int) *Edges {
	return &Edges{W: w, H: h, Pix: make([]bool, w*h)}
}

// EdgesFromBytes treats every non-zero byte as an edge, which is how 8-bit
// Canny output is laid out.
func EdgesFromBytes(w, h int, b []byte) *Edges {
	e := NewEdges(w, h)
	n := min(len(b), len(e.Pix))
	for i := 0; i < n; i++ {
		e.Pix[i] = b[i] != 0
	}
	return e
}

// At reports whether (x, y) is an edge; out of range is never an edge.
func (e *Edges) At(x, y int) bool {
	if x < 0 || y < 0 || x >= e.W || y >= e.H {
		return false
	}
	return e.Pix[y*e.W+x]
}

func (e *Edges) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= e.W || y >= e.H {
		return
	}
	e.Pix[y*e.W+x] = v
}
