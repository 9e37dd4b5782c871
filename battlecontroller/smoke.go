package battlecontroller

import (
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/replay"
)

// onSmokePoints appends newly-seen points, preserving insertion order,
// and recomputes bound_left/bound_right from the just-received value's
// first and last points (spec.md §4.6).
func (c *Controller) onSmokePoints(e *entity.Entity, value any) {
	list, ok := asList(value)
	if !ok {
		c.fail(errArgs("SmokeScreen.points", 1, 0))
		return
	}

	id := int(e.ID)
	s, exists := c.events.Smokes[id]
	if !exists {
		s = &replay.SmokeScreen{SpawnTime: c.currentTime}
		c.events.Smokes[id] = s
	}

	points := make([][2]float32, 0, len(list))
	for _, raw := range list {
		pair, ok := asList(raw)
		if !ok || len(pair) != 2 {
			continue
		}
		x, okx := asFloat(pair[0])
		y, oky := asFloat(pair[1])
		if !okx || !oky {
			continue
		}
		points = append(points, [2]float32{float32(x), float32(y)})
	}
	if len(points) == 0 {
		return
	}

	for _, p := range points {
		if indexOfPoint(s.Points, p) < 0 {
			s.Points = append(s.Points, p)
		}
	}

	s.BoundLeft = indexOfPoint(s.Points, points[0])
	s.BoundRight = indexOfPoint(s.Points, points[len(points)-1])
}

func indexOfPoint(points [][2]float32, p [2]float32) int {
	for i, q := range points {
		if q == p {
			return i
		}
	}
	return -1
}
