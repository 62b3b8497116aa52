package bunraku

import "math"

// PhysicsSettings configures the pendulum/spring model for a physics-enabled
// node. Settings are static after construction; only the simulation state
// (angle, velocity) changes, and only inside the solver's tick.
type PhysicsSettings struct {
	// Length is the pendulum arm length in puppet units. It scales the
	// output displacement and divides the gravity and drive torques.
	Length float64
	// Gravity scales the standard gravitational acceleration; 0 disables
	// the gravity term entirely.
	Gravity float64
	// Damping is the velocity damping coefficient.
	Damping float64
	// Stiffness is the restoring spring constant pulling the angle back
	// to rest.
	Stiffness float64
}

const (
	gravityAccel = 9.8

	// maxStableStep is the integration stability threshold. A tick with a
	// larger dt is subdivided into equal sub-steps no longer than this, and
	// the same integration rule is applied to each.
	maxStableStep = 1.0 / 120
)

// physicsNode is the persistent per-node simulation state. output holds the
// displacement computed by the most recent tick; prevOutput holds the one
// before it. The deformation pass always reads prevOutput, making the solver
// one frame behind by design.
type physicsNode struct {
	node     int // arena index
	settings PhysicsSettings

	angle    float64
	velocity float64

	// Anchor tracking. The pendulum hangs from the node's world position;
	// anchor acceleration between ticks is what excites the swing.
	anchor    Vec2
	anchorVel Vec2

	output     Vec2
	prevOutput Vec2
}

// physicsSolver integrates secondary motion for every physics-enabled node.
// Owned by the Puppet; ticked exactly once per Update, never concurrently.
type physicsSolver struct {
	nodes  []physicsNode
	byNode map[int]int // arena index -> nodes index
	resets int
}

// newPhysicsSolver collects the physics-enabled nodes. The caller must have
// propagated world transforms first so anchors seed from real positions
// instead of registering a spurious kick on the first tick.
func newPhysicsSolver(nodes []Node) physicsSolver {
	s := physicsSolver{byNode: make(map[int]int)}
	for i := range nodes {
		if nodes[i].Physics == nil {
			continue
		}
		wt := nodes[i].worldTransform
		s.byNode[i] = len(s.nodes)
		s.nodes = append(s.nodes, physicsNode{
			node:     i,
			settings: *nodes[i].Physics,
			anchor:   Vec2{wt[4], wt[5]},
		})
	}
	return s
}

// prevDisplacement returns the displacement computed for the node on the
// previous tick, or zero if the node carries no physics.
func (s *physicsSolver) prevDisplacement(node int) Vec2 {
	if i, ok := s.byNode[node]; ok {
		return s.nodes[i].prevOutput
	}
	return Vec2{}
}

// tick advances every physics node by dt seconds using semi-implicit Euler:
//
//	velocity += (gravity torque + drive torque - damping*velocity - stiffness*angle) * h
//	angle    += velocity * h
//
// where the drive torque comes from the anchor's acceleration since the last
// tick (the world transforms it reads are the previous frame's, consistent
// with the solver being one frame behind). dt above maxStableStep is split
// into equal sub-steps. Non-finite state is reset to rest and counted;
// divergence is recovered locally, never propagated as an error.
func (s *physicsSolver) tick(dt float64, nodes []Node) {
	for i := range s.nodes {
		n := &s.nodes[i]
		n.prevOutput = n.output

		if dt > 0 {
			wt := nodes[n.node].worldTransform
			anchor := Vec2{wt[4], wt[5]}
			vel := Vec2{(anchor.X - n.anchor.X) / dt, (anchor.Y - n.anchor.Y) / dt}
			accel := Vec2{(vel.X - n.anchorVel.X) / dt, (vel.Y - n.anchorVel.Y) / dt}
			n.anchor = anchor
			n.anchorVel = vel

			steps := 1
			h := dt
			if dt > maxStableStep {
				steps = int(math.Ceil(dt / maxStableStep))
				h = dt / float64(steps)
			}
			for k := 0; k < steps; k++ {
				sin, cos := math.Sincos(n.angle)
				torque := -n.settings.Damping*n.velocity - n.settings.Stiffness*n.angle
				if n.settings.Length > 0 {
					if n.settings.Gravity != 0 {
						torque -= gravityAccel * n.settings.Gravity / n.settings.Length * sin
					}
					// A pivot accelerating sideways swings the bob the
					// other way; vertical acceleration adds to gravity.
					torque -= (accel.X*cos + accel.Y*sin) / n.settings.Length
				}
				n.velocity += torque * h
				n.angle += n.velocity * h
			}

			if !isFinite(n.angle) || !isFinite(n.velocity) {
				n.angle = 0
				n.velocity = 0
				s.resets++
				debugf("bunraku: physics diverged on node %d, reset to rest (total resets: %d)", n.node, s.resets)
			}
		}

		// Bob position relative to hanging rest: x swings sideways, y lifts
		// as the arm rotates away from vertical.
		sin, cos := math.Sincos(n.angle)
		n.output = Vec2{
			X: n.settings.Length * sin,
			Y: n.settings.Length * (1 - cos),
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PhysicsResets returns how many times the solver recovered a diverged node
// by resetting it to rest. A rising count usually means the caller is
// passing enormous dt values or the rig's stiffness is misconfigured.
func (p *Puppet) PhysicsResets() int {
	return p.physics.resets
}

// PhysicsState returns the current angle and velocity for the given node
// UUID, for diagnostics and tests. ok is false if the node carries no
// physics.
func (p *Puppet) PhysicsState(uuid uint32) (angle, velocity float64, ok bool) {
	for i := range p.physics.nodes {
		n := &p.physics.nodes[i]
		if p.nodes[n.node].UUID == uuid {
			return n.angle, n.velocity, true
		}
	}
	return 0, 0, false
}
