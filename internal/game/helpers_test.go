package game

import (
	"io"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/playmatatu/eightball/internal/config"
)

// fakePhysics is a scriptable PhysicsService. Nothing moves unless a test
// says so.
type fakePhysics struct {
	pos      map[int]Vec2
	vel      map[int]Vec2
	forces   map[int]Vec2
	impulses map[int][]Vec2
	damping  map[int]float64
	removed  map[int]bool
	released map[int]bool

	raycast func(origin, dir Vec2, maxDist float64, mask LayerMask) (RaycastHit, bool)
}

func newFakePhysics() *fakePhysics {
	return &fakePhysics{
		pos:      map[int]Vec2{},
		vel:      map[int]Vec2{},
		forces:   map[int]Vec2{},
		impulses: map[int][]Vec2{},
		damping:  map[int]float64{},
		removed:  map[int]bool{},
		released: map[int]bool{},
	}
}

func (f *fakePhysics) Raycast(origin, dir Vec2, maxDist float64, mask LayerMask) (RaycastHit, bool) {
	if f.raycast == nil {
		return RaycastHit{}, false
	}
	return f.raycast(origin, dir, maxDist, mask)
}

func (f *fakePhysics) Velocity(id int) Vec2 { return f.vel[id] }
func (f *fakePhysics) SetVelocity(id int, v Vec2) { f.vel[id] = v }
func (f *fakePhysics) Position(id int) Vec2 { return f.pos[id] }
func (f *fakePhysics) SetPosition(id int, p Vec2) { f.pos[id] = p }
func (f *fakePhysics) AddForce(id int, v Vec2) { f.forces[id] = f.forces[id].Add(v) }
func (f *fakePhysics) RemoveBody(id int) { f.removed[id] = true }
func (f *fakePhysics) ReleaseFromPocket(id int) { f.released[id] = true }

func (f *fakePhysics) ApplyImpulse(id int, v Vec2) {
	f.impulses[id] = append(f.impulses[id], v)
	f.vel[id] = f.vel[id].Add(v)
}

func (f *fakePhysics) SetDamping(id int, linear, _ float64) { f.damping[id] = linear }

func (f *fakePhysics) stopAll() {
	for id := range f.vel {
		f.vel[id] = Vec2{}
	}
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

// recorder collects every event published on a bus.
type recorder struct {
	events []Event
}

func (r *recorder) attach(bus *EventBus) {
	bus.Subscribe(func(ev Event) { r.events = append(r.events, ev) })
}

func (r *recorder) ofType(t EventType) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// localConfig is a two-human match with short animations.
func localConfig() config.MatchConfig {
	cfg := config.DefaultMatchConfig()
	cfg.Mode = config.ModeLocal
	return cfg
}

func newLocalMatch(phys PhysicsService) (*Match, *recorder) {
	m, err := NewMatch(localConfig(), phys, Layout{RespawnPoint: Vec2{-2, 0}}, WithLogger(quietLog()), WithRand(testRand()))
	if err != nil {
		panic(err)
	}
	rec := &recorder{}
	rec.attach(m.Bus())
	return m, rec
}

func tickFor(m *Match, seconds float64) {
	const dt = 1.0 / 60
	for t := 0.0; t < seconds; t += dt {
		m.Tick(dt)
	}
}
