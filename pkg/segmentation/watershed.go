package segmentation

import (
	"container/heap"
	"math"
)

// Marker labels used by the watershed flood.
const (
	markerNone       = 0
	markerBackground = 1
	markerForeground = 2
)

// floodItem is one pixel queued for flooding. seq enforces FIFO order
// among equal priorities so the flood is fully deterministic.
type floodItem struct {
	index    int
	priority float64
	seq      int
}

type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }

func (q floodQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *floodQueue) Push(x interface{}) { *q = append(*q, x.(floodItem)) }

func (q *floodQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// gradientMagnitude computes the Sobel gradient magnitude of a flat
// row-major intensity grid. Border pixels replicate their nearest
// interior neighbor.
func gradientMagnitude(pix []float64, width, height int) []float64 {
	out := make([]float64, len(pix))
	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= width {
			x = width - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= height {
			y = height - 1
		}
		return pix[y*width+x]
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			out[y*width+x] = math.Hypot(gx, gy)
		}
	}
	return out
}

// watershed grows the marker regions over the gradient landscape,
// restricted to mask pixels. Lower-gradient pixels are claimed first,
// so region boundaries settle on gradient ridges. 4-connectivity.
func watershed(grad []float64, markers []int, mask []bool, width, height int) []int {
	labels := make([]int, len(markers))
	copy(labels, markers)

	q := &floodQueue{}
	heap.Init(q)
	seq := 0

	push := func(idx int) {
		heap.Push(q, floodItem{index: idx, priority: grad[idx], seq: seq})
		seq++
	}

	for i, m := range markers {
		if m != markerNone && mask[i] {
			push(i)
		}
	}

	var neighbors4 = [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

	for q.Len() > 0 {
		item := heap.Pop(q).(floodItem)
		label := labels[item.index]
		if label == markerNone {
			continue
		}
		px, py := item.index%width, item.index/width
		for _, n := range neighbors4 {
			nx, ny := px+n[0], py+n[1]
			if nx < 0 || nx >= width || ny < 0 || ny >= height {
				continue
			}
			ni := ny*width + nx
			if !mask[ni] || labels[ni] != markerNone {
				continue
			}
			labels[ni] = label
			push(ni)
		}
	}
	return labels
}
