package sampler

// Window is a fixed-size ring of the most recent raw readings.
type Window struct {
	values []int
	next   int
	filled int
	sum    int64
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = 1
	}

	return &Window{values: make([]int, size)}
}

// Push adds a reading, evicting the oldest once the window is full.
func (w *Window) Push(value int) {
	if w.filled == len(w.values) {
		w.sum -= int64(w.values[w.next])
	} else {
		w.filled++
	}

	w.values[w.next] = value
	w.sum += int64(value)
	w.next = (w.next + 1) % len(w.values)
}

// Mean returns the mean of the buffered readings, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.filled == 0 {
		return 0
	}

	return float64(w.sum) / float64(w.filled)
}

func (w *Window) Len() int {
	return w.filled
}

func (w *Window) Full() bool {
	return w.filled == len(w.values)
}

func (w *Window) Size() int {
	return len(w.values)
}
