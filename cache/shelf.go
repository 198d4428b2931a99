package cache

// shelfAllocator packs rectangles into horizontal shelves. Each shelf
// takes the height of the tallest item placed on it; new items go
// left-to-right until the shelf runs out, then a new shelf opens below.
// Individual rectangles are never freed in place; pages reclaim space
// by repacking.
type shelfAllocator struct {
	width   int
	height  int
	padding int
	shelves []shelf

	usedArea int
}

type shelf struct {
	y      int // top of the shelf
	height int // tallest item so far
	x      int // next free slot
}

func newShelfAllocator(width, height, padding int) *shelfAllocator {
	return &shelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate finds space for a w x h rectangle. Returns the position and
// whether space was found.
func (a *shelfAllocator) allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + a.padding
	paddedH := h + a.padding

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h > s.height {
			// Taller than the shelf. The last shelf may grow downward
			// if there is room.
			if i == len(a.shelves)-1 && s.y+paddedH <= a.height {
				s.height = h
				x, y = s.x, s.y
				s.x += paddedW
				a.usedArea += w * h
				return x, y, true
			}
			continue
		}
		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if len(a.shelves) > 0 {
		last := a.shelves[len(a.shelves)-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// reset clears all allocations for a repack.
func (a *shelfAllocator) reset() {
	a.shelves = a.shelves[:0]
	a.usedArea = 0
}
