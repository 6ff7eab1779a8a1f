package kinetix

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Contact is the notification payload for contact-test events. Normal points
// from BodyB towards BodyA.
type Contact struct {
	BodyA, BodyB *Body
	Point        mgl32.Vec3
	Normal       mgl32.Vec3
	Penetration  float32
}

// ContactHandler receives contact notifications for pairs passing the
// contactTest bitmask. Callbacks run inside Step; do not mutate bodies from
// them.
type ContactHandler interface {
	ContactBegan(c Contact)
	ContactEnded(a, b *Body)
}

type pairKey struct {
	a, b BodyId
}

func makePairKey(a, b *Body) pairKey {
	if a.id < b.id {
		return pairKey{a.id, b.id}
	}
	return pairKey{b.id, a.id}
}

// World drives the simulation. Single-threaded by contract: all body
// mutation, attachment and stepping happen from one goroutine, and no body
// state is visible mid-step.
type World struct {
	Gravity mgl32.Vec3

	cfg     Config
	log     Logger
	bodies  []*Body
	grid    *spatialHashGrid
	handler ContactHandler

	activePairs map[pairKey]struct{}
}

func NewWorld() *World {
	return NewWorldWithConfig(DefaultConfig())
}

func NewWorldWithConfig(cfg Config) *World {
	cfg.fillDefaults()
	return &World{
		Gravity:     mgl32.Vec3{cfg.Gravity[0], cfg.Gravity[1], cfg.Gravity[2]},
		cfg:         cfg,
		log:         NewNopLogger(),
		grid:        newSpatialHashGrid(cfg.CellSize),
		activePairs: make(map[pairKey]struct{}),
	}
}

func (w *World) SetLogger(l Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	w.log = l
}

func (w *World) SetContactHandler(h ContactHandler) { w.handler = h }

func (w *World) Config() Config { return w.cfg }

// Bodies returns the attached bodies. The returned slice is shared; treat it
// as read-only.
func (w *World) Bodies() []*Body { return w.bodies }

// Attach wires node and body together and registers the body for stepping.
// The node owns the body; the body keeps a back-reference only. A shapeless
// body derives a convex hull from the node's geometry here.
func (w *World) Attach(node *Node, body *Body) error {
	if err := node.attachBody(body); err != nil {
		return err
	}
	if body.bodyType == BodyDynamic && body.mass < w.cfg.MinDynamicMass {
		// Degenerate mass: clamp instead of reject so integration never
		// divides by zero.
		w.log.Warnf("body %s: mass %v clamped to %v", body.id, body.mass, w.cfg.MinDynamicMass)
		body.SetMass(w.cfg.MinDynamicMass)
	}
	body.world = w
	w.bodies = append(w.bodies, body)
	w.log.Debugf("attached body %s to node %q", body.id, node.Name)
	return nil
}

// Detach unhooks the body from its node and removes it from the world.
func (w *World) Detach(body *Body) {
	if body.node != nil {
		body.node.detachBody()
	}
	body.world = nil
	for i, b := range w.bodies {
		if b == body {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	for key := range w.activePairs {
		if key.a == body.id || key.b == body.id {
			delete(w.activePairs, key)
		}
	}
	w.log.Debugf("detached body %s", body.id)
}

// Step advances the simulation by dt seconds. A step completes fully or not
// at all: out-of-range deltas are dropped, and all cross-body effects are
// buffered and committed at the step boundary.
func (w *World) Step(dt float32) {
	if dt <= 0 || dt > w.cfg.MaxStepDt {
		w.log.Warnf("step rejected: dt=%v out of range", dt)
		return
	}
	if len(w.bodies) == 0 {
		return
	}

	n := len(w.bodies)
	snapshots := make([]bodyState, n)

	// Prepare: kinematic bodies mirror their node, everyone refreshes the
	// node-scale-adjusted collision extents, and the next buffer starts as a
	// copy of the current state.
	for i, b := range w.bodies {
		b.stepIndex = i
		if b.bodyType == BodyKinematic && b.node != nil {
			pos, rot, _ := b.node.worldTRS()
			b.cur.pos = pos
			b.cur.rot = rot
		}
		b.refreshScaledGeometry()
		snapshots[i] = b.cur
		b.next = b.cur
	}

	// Integrate.
	for _, b := range w.bodies {
		if b.bodyType != BodyDynamic || b.resting {
			continue
		}
		v := b.cur.vel
		if b.IsAffectedByGravity {
			v = v.Add(w.Gravity.Mul(dt))
		}
		v = v.Add(b.netForce.Mul(b.invMass * dt))
		wv := b.cur.angVel.Add(compDiv(b.netTorque, b.inertia).Mul(dt))

		v = v.Mul(clampf(1-b.Damping*dt, 0, 1))
		wv = wv.Mul(clampf(1-b.AngularDamping*dt, 0, 1))

		b.next.vel = v
		b.next.angVel = wv
		b.next.pos = b.cur.pos.Add(v.Mul(dt))
		b.next.rot = integrateOrientation(b.cur.rot, wv, dt)
	}

	// Broad phase over post-integration positions.
	w.grid.clear()
	aabbMin := make([]mgl32.Vec3, n)
	aabbMax := make([]mgl32.Vec3, n)
	for i, b := range w.bodies {
		aabbMin[i], aabbMax[i] = b.worldAABB()
		w.grid.insert(i, aabbMin[i], aabbMax[i])
	}

	// Collide. Impulses and corrections accumulate into per-body buffers and
	// land only after every pair has been processed, so resolution order over
	// the unordered pair set cannot leak into the results.
	dVel := make([]mgl32.Vec3, n)
	dAngVel := make([]mgl32.Vec3, n)
	dPos := make([]mgl32.Vec3, n)
	rolling := make([]float32, n)
	wakeups := make([]bool, n)
	stepPairs := make(map[pairKey]struct{})

	for i, a := range w.bodies {
		for _, j := range w.grid.query(aabbMin[i], aabbMax[i]) {
			if j <= i {
				continue
			}
			b := w.bodies[j]

			respond := a.CategoryBitMask&b.CollisionBitMask != 0 &&
				b.CategoryBitMask&a.CollisionBitMask != 0
			notify := a.CategoryBitMask&b.ContactTestBitMask != 0 ||
				b.CategoryBitMask&a.ContactTestBitMask != 0
			if !respond && !notify {
				continue
			}
			if a.bodyType != BodyDynamic && b.bodyType != BodyDynamic {
				// Static/kinematic pairs never respond physically, but a
				// contact test between them (a kinematic body crossing a
				// static trigger volume) still notifies.
				if !notify {
					continue
				}
				respond = false
			}
			if !aabbOverlap(aabbMin[i], aabbMax[i], aabbMin[j], aabbMax[j]) {
				continue
			}

			c, hit := collideBodies(a, b)
			if !hit {
				continue
			}

			if notify && w.handler != nil {
				key := makePairKey(a, b)
				stepPairs[key] = struct{}{}
				if _, known := w.activePairs[key]; !known {
					w.handler.ContactBegan(Contact{
						BodyA:       a,
						BodyB:       b,
						Point:       c.point,
						Normal:      c.normal,
						Penetration: c.penetration,
					})
				}
			}

			if respond {
				w.resolvePair(a, b, c, dVel, dAngVel, dPos, rolling, wakeups)
			}
		}
	}

	// Commit: apply buffered deltas, quarantine non-finite states, swap the
	// buffers, run the rest-state machine, clear accumulators.
	for i, b := range w.bodies {
		if b.bodyType == BodyDynamic {
			b.next.vel = b.next.vel.Add(dVel[i])
			b.next.angVel = b.next.angVel.Add(dAngVel[i])
			b.next.pos = b.next.pos.Add(dPos[i])
			if rolling[i] > 0 {
				b.next.angVel = b.next.angVel.Mul(clampf(1-rolling[i]*dt, 0, 1))
			}
			if wakeups[i] {
				b.resting = false
				b.restingSteps = 0
			}

			if !isFiniteVec3(b.next.pos) || !isFiniteVec3(b.next.vel) ||
				!isFiniteVec3(b.next.angVel) || !isFiniteQuat(b.next.rot) {
				// Fault isolation: roll back to the last valid state and park
				// the body so it cannot poison the rest of the simulation.
				w.log.Warnf("body %s: non-finite state, quarantined", b.id)
				b.next = snapshots[i]
				b.next.vel = mgl32.Vec3{}
				b.next.angVel = mgl32.Vec3{}
				b.resting = true
			}

			b.cur = b.next
			w.updateRestState(b)
		}

		b.netForce = mgl32.Vec3{}
		b.netTorque = mgl32.Vec3{}
	}

	// Write simulated movement back to the nodes, scaled per axis by the
	// body's velocity factors. The internal state keeps the full movement.
	for i, b := range w.bodies {
		if b.bodyType != BodyDynamic || b.node == nil {
			continue
		}
		delta := b.cur.pos.Sub(snapshots[i].pos)
		rotDelta := rotationVector(b.cur.rot.Mul(snapshots[i].rot.Conjugate()))
		if delta.LenSqr() < epsilon*epsilon && rotDelta.LenSqr() < epsilon*epsilon {
			continue
		}

		nPos, nRot, _ := b.node.worldTRS()
		nPos = nPos.Add(compMul(delta, b.VelocityFactor))
		nRot = quatFromRotationVector(compMul(rotDelta, b.AngularVelocityFactor)).Mul(nRot).Normalize()
		b.node.setWorldTRS(nPos, nRot)
	}

	// Stirred flags only cleared after the rest-state machine consumed them.
	for _, b := range w.bodies {
		b.stirred = false
	}

	// Ended contacts: pairs that were active last step and produced no
	// contact in this one.
	if w.handler != nil {
		for key := range w.activePairs {
			if _, still := stepPairs[key]; !still {
				a := w.bodyById(key.a)
				b := w.bodyById(key.b)
				if a != nil && b != nil {
					w.handler.ContactEnded(a, b)
				}
			}
		}
	}
	w.activePairs = stepPairs
}

func (w *World) bodyById(id BodyId) *Body {
	for _, b := range w.bodies {
		if b.id == id {
			return b
		}
	}
	return nil
}

// updateRestState runs the Active -> Resting debounce. Only dynamic bodies
// that allow resting, saw no external force this step, and stayed below the
// speed thresholds for the configured number of consecutive steps go to rest.
func (w *World) updateRestState(b *Body) {
	if b.resting {
		return
	}
	if !b.AllowsResting || b.stirred ||
		b.cur.vel.Len() >= w.cfg.RestSpeedThreshold ||
		b.cur.angVel.Len() >= w.cfg.RestAngularThreshold {
		b.restingSteps = 0
		return
	}
	b.restingSteps++
	if b.restingSteps >= w.cfg.RestStepCount {
		b.resting = true
		b.cur.vel = mgl32.Vec3{}
		b.cur.angVel = mgl32.Vec3{}
	}
}

// resolvePair computes the collision response for one contact and accumulates
// it into the deferred buffers. Resting, static and kinematic bodies take no
// impulse; a resting body hit by something moving is flagged for wake-up.
func (w *World) resolvePair(a, b *Body, c contact, dVel, dAngVel, dPos []mgl32.Vec3, rolling []float32, wakeups []bool) {
	invMassA := a.effectiveInvMass()
	invMassB := b.effectiveInvMass()

	rA := c.point.Sub(a.next.pos)
	rB := c.point.Sub(b.next.pos)

	vA := a.next.vel.Add(a.next.angVel.Cross(rA))
	vB := b.next.vel.Add(b.next.angVel.Cross(rB))
	rel := vA.Sub(vB)

	// Wake checks run even when neither side can take an impulse this step: a
	// resting body has zero effective inverse mass, and a kinematic mover
	// always does, so deciding wake-ups after the immovable early-out would
	// let a kinematic body plow through a sleeper without ever waking it.
	relSpeed := rel.Len()
	if a.resting && relSpeed > w.cfg.RestSpeedThreshold {
		wakeups[a.stepIndex] = true
	}
	if b.resting && relSpeed > w.cfg.RestSpeedThreshold {
		wakeups[b.stepIndex] = true
	}

	if invMassA == 0 && invMassB == 0 {
		return
	}
	velAlongNormal := rel.Dot(c.normal)

	// Positional correction: split the remaining penetration between the
	// movable sides in proportion to their inverse masses.
	depth := c.penetration - w.cfg.PenetrationSlop
	if depth > 0 {
		total := invMassA + invMassB
		if invMassA > 0 {
			dPos[a.stepIndex] = dPos[a.stepIndex].Add(c.normal.Mul(depth * invMassA / total))
		}
		if invMassB > 0 {
			dPos[b.stepIndex] = dPos[b.stepIndex].Sub(c.normal.Mul(depth * invMassB / total))
		}
	}

	// Separating already; no impulse.
	if velAlongNormal > 0 {
		return
	}

	invInertiaA := a.effectiveInvInertia()
	invInertiaB := b.effectiveInvInertia()

	rAn := rA.Cross(c.normal)
	rBn := rB.Cross(c.normal)
	denom := invMassA + invMassB + rAn.Dot(rAn)*invInertiaA + rBn.Dot(rBn)*invInertiaB
	if denom < epsilon {
		return
	}

	restitution := (a.Restitution + b.Restitution) * 0.5
	j := -(1 + restitution) * velAlongNormal / denom
	impulse := c.normal.Mul(j)

	if invMassA > 0 {
		dVel[a.stepIndex] = dVel[a.stepIndex].Add(impulse.Mul(invMassA))
		dAngVel[a.stepIndex] = dAngVel[a.stepIndex].Add(rA.Cross(impulse).Mul(invInertiaA))
	}
	if invMassB > 0 {
		dVel[b.stepIndex] = dVel[b.stepIndex].Sub(impulse.Mul(invMassB))
		dAngVel[b.stepIndex] = dAngVel[b.stepIndex].Sub(rB.Cross(impulse).Mul(invInertiaB))
	}

	// Friction along the contact tangent: a single tangential impulse scaled
	// by the averaged coefficient.
	friction := (a.Friction + b.Friction) * 0.5
	tangent := rel.Sub(c.normal.Mul(velAlongNormal))
	if tangent.Len() > 0.0001 && friction > 0 {
		tangent = tangent.Normalize()
		jt := -rel.Dot(tangent) * friction / denom
		fImpulse := tangent.Mul(jt)
		if invMassA > 0 {
			dVel[a.stepIndex] = dVel[a.stepIndex].Add(fImpulse.Mul(invMassA))
			dAngVel[a.stepIndex] = dAngVel[a.stepIndex].Add(rA.Cross(fImpulse).Mul(invInertiaA))
		}
		if invMassB > 0 {
			dVel[b.stepIndex] = dVel[b.stepIndex].Sub(fImpulse.Mul(invMassB))
			dAngVel[b.stepIndex] = dAngVel[b.stepIndex].Sub(rB.Cross(fImpulse).Mul(invInertiaB))
		}
	}

	rf := math32.Max(a.RollingFriction, b.RollingFriction)
	if rf > 0 {
		if invMassA > 0 {
			rolling[a.stepIndex] = math32.Max(rolling[a.stepIndex], rf)
		}
		if invMassB > 0 {
			rolling[b.stepIndex] = math32.Max(rolling[b.stepIndex], rf)
		}
	}
}

// collideBodies dispatches the narrow phase on the shape kinds, using the
// post-integration (next) state. Hulls collide through their best-fit box.
func collideBodies(a, b *Body) (contact, bool) {
	aSphere := a.shape != nil && a.shape.kind == ShapeSphere
	bSphere := b.shape != nil && b.shape.kind == ShapeSphere

	switch {
	case aSphere && bSphere:
		return collideSpheres(a.next.pos, a.scaledRadius, b.next.pos, b.scaledRadius)
	case aSphere:
		return collideSphereOBB(a.next.pos, a.scaledRadius, makeOBB(b.next.pos, b.next.rot, b.scaledExtents))
	case bSphere:
		c, hit := collideSphereOBB(b.next.pos, b.scaledRadius, makeOBB(a.next.pos, a.next.rot, a.scaledExtents))
		if hit {
			c.normal = c.normal.Mul(-1) // flip back to B-towards-A
		}
		return c, hit
	default:
		return collideOBBs(
			makeOBB(a.next.pos, a.next.rot, a.scaledExtents),
			makeOBB(b.next.pos, b.next.rot, b.scaledExtents),
		)
	}
}

// effectiveInvMass is zero for anything that must not move in resolution:
// static, kinematic and currently resting bodies.
func (b *Body) effectiveInvMass() float32 {
	if b.bodyType != BodyDynamic || b.resting {
		return 0
	}
	return b.invMass
}

// effectiveInvInertia collapses the diagonal tensor to its mean for the
// scalar contact denominator.
func (b *Body) effectiveInvInertia() float32 {
	if b.bodyType != BodyDynamic || b.resting {
		return 0
	}
	mean := (b.inertia.X() + b.inertia.Y() + b.inertia.Z()) / 3
	if mean < epsilon {
		return 0
	}
	return 1 / mean
}
