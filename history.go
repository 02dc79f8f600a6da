package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

const historyLen = 3

// vec3History keeps the last historyLen samples of a vector.
type vec3History struct {
	samples [historyLen]mgl32.Vec3
	head    int // next write slot
	count   int
}

func (h *vec3History) Push(v mgl32.Vec3) {
	h.samples[h.head] = v
	h.head = (h.head + 1) % historyLen
	if h.count < historyLen {
		h.count++
	}
}

func (h *vec3History) Len() int {
	return h.count
}

// At returns the i-th most recent sample, 0 being the newest.
func (h *vec3History) At(i int) (mgl32.Vec3, bool) {
	if i < 0 || i >= h.count {
		return mgl32.Vec3{}, false
	}
	idx := (h.head - 1 - i + historyLen*2) % historyLen
	return h.samples[idx], true
}

func (h *vec3History) Last() (mgl32.Vec3, bool) {
	return h.At(0)
}

// Samples returns the recorded samples, newest first.
func (h *vec3History) Samples() []mgl32.Vec3 {
	res := make([]mgl32.Vec3, 0, h.count)
	for i := 0; i < h.count; i++ {
		v, _ := h.At(i)
		res = append(res, v)
	}
	return res
}

// Stationary reports whether the buffer is full and every sample holds the
// same value on axis.
func (h *vec3History) Stationary(axis int) bool {
	if h.count < historyLen {
		return false
	}
	first := h.samples[0][axis]
	for i := 1; i < historyLen; i++ {
		if h.samples[i][axis] != first {
			return false
		}
	}
	return true
}

// Tendency is the sign of newest minus oldest sample on axis.
func (h *vec3History) Tendency(axis int) int {
	if h.count < 2 {
		return 0
	}
	newest, _ := h.At(0)
	oldest, _ := h.At(h.count - 1)
	d := newest[axis] - oldest[axis]
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}

func (h *vec3History) Reset() {
	*h = vec3History{}
}
