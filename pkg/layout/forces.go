package layout

import "math"

// Forces read positions from the frozen snapshot (px, py) and accumulate
// velocity increments into (ax, ay). Pinned bodies act as sources but never
// receive anything.

// jiggle returns a tiny deterministic offset for separating coincident
// bodies. It is never zero.
func jiggle(seed int) float64 {
	return (float64(seed%13) - 6.5) * 1e-6
}

// applyLink pulls the endpoints of every link towards the rest length.
// The correction is split evenly between two free endpoints and given
// entirely to the free endpoint when the other is pinned.
func (s *state) applyLink(cfg *Config, alpha float64) {
	k := cfg.LinkStrength * alpha
	if k == 0 {
		return
	}
	for i, l := range s.links {
		src, dst := &s.bodies[l.source], &s.bodies[l.target]
		if src.pinned && dst.pinned {
			continue
		}
		dx := s.px[l.target] - s.px[l.source]
		dy := s.py[l.target] - s.py[l.source]
		if dx == 0 && dy == 0 {
			dx, dy = jiggle(i), jiggle(i+7)
		}
		d := math.Sqrt(dx*dx + dy*dy)
		f := (d - cfg.LinkDistance) / d * k
		fx, fy := dx*f, dy*f

		srcShare, dstShare := 0.5, 0.5
		if src.pinned {
			srcShare, dstShare = 0, 1
		} else if dst.pinned {
			srcShare, dstShare = 1, 0
		}
		s.ax[l.target] -= fx * dstShare
		s.ay[l.target] -= fy * dstShare
		s.ax[l.source] += fx * srcShare
		s.ay[l.source] += fy * srcShare
	}
}

// applyCharge applies pairwise inverse-distance repulsion (or attraction for
// a positive strength) over all pairs.
func (s *state) applyCharge(cfg *Config, alpha float64) {
	k := cfg.ChargeStrength * alpha
	if k == 0 {
		return
	}
	eps2 := cfg.Epsilon * cfg.Epsilon
	n := len(s.bodies)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			bi, bj := &s.bodies[i], &s.bodies[j]
			if bi.pinned && bj.pinned {
				continue
			}
			dx := s.px[j] - s.px[i]
			dy := s.py[j] - s.py[i]
			if dx == 0 && dy == 0 {
				dx, dy = jiggle(i*31+j), jiggle(j*31+i)
			}
			d2 := max(dx*dx+dy*dy, eps2)
			w := k / d2
			if !bi.pinned {
				s.ax[i] += dx * w
				s.ay[i] += dy * w
			}
			if !bj.pinned {
				s.ax[j] -= dx * w
				s.ay[j] -= dy * w
			}
		}
	}
}

// applyRadial pulls free bodies towards the target radius around the origin.
func (s *state) applyRadial(cfg *Config, alpha float64) {
	k := cfg.RadialStrength * alpha
	if k == 0 {
		return
	}
	for i := range s.bodies {
		if s.bodies[i].pinned {
			continue
		}
		dx, dy := s.px[i], s.py[i]
		r := math.Sqrt(dx*dx + dy*dy)
		if r < cfg.Epsilon {
			continue
		}
		f := (cfg.RadialRadius - r) * k / r
		s.ax[i] += dx * f
		s.ay[i] += dy * f
	}
}

// applyCollision separates overlapping bodies along their separation
// vector. Two free bodies share the correction weighted by radius squared,
// so small nodes yield to large ones.
func (s *state) applyCollision(cfg *Config) {
	if cfg.CollisionStrength == 0 {
		return
	}
	n := len(s.bodies)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			bi, bj := &s.bodies[i], &s.bodies[j]
			if bi.pinned && bj.pinned {
				continue
			}
			reach := bi.radius + bj.radius + cfg.CollisionPadding
			dx := s.px[i] - s.px[j]
			dy := s.py[i] - s.py[j]
			d2 := dx*dx + dy*dy
			if d2 >= reach*reach {
				continue
			}
			if d2 == 0 {
				dx, dy = jiggle(i*17+j), jiggle(j*17+i)
				d2 = dx*dx + dy*dy
			}
			d := math.Sqrt(d2)
			f := (reach - d) / d * cfg.CollisionStrength
			fx, fy := dx*f, dy*f

			ri, rj := bi.radius*bi.radius, bj.radius*bj.radius
			shareI := 0.5
			if ri+rj > 0 {
				shareI = rj / (ri + rj)
			}
			switch {
			case bi.pinned:
				shareI = 0
			case bj.pinned:
				shareI = 1
			}
			s.ax[i] += fx * shareI
			s.ay[i] += fy * shareI
			s.ax[j] -= fx * (1 - shareI)
			s.ay[j] -= fy * (1 - shareI)
		}
	}
}

// center shifts free bodies so that their centroid sits at the origin.
func (s *state) center() {
	var cx, cy float64
	free := 0
	for i := range s.bodies {
		if s.bodies[i].pinned {
			continue
		}
		cx += s.bodies[i].x
		cy += s.bodies[i].y
		free++
	}
	if free == 0 {
		return
	}
	cx /= float64(free)
	cy /= float64(free)
	for i := range s.bodies {
		if !s.bodies[i].pinned {
			s.bodies[i].x -= cx
			s.bodies[i].y -= cy
		}
	}
}
