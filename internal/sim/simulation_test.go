package sim_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vector"
)

func gravityOnly() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.EnableInteraction = false
	return cfg
}

func expectVec(got, want vector.Vec3, tol float64) {
	ExpectWithOffset(1, float64(got.X)).To(BeNumerically("~", want.X, tol))
	ExpectWithOffset(1, float64(got.Y)).To(BeNumerically("~", want.Y, tol))
	ExpectWithOffset(1, float64(got.Z)).To(BeNumerically("~", want.Z, tol))
}

var _ = Describe("Simulation", func() {
	Describe("construction", func() {
		It("creates the configured number of particles inside the spawn span", func() {
			cfg := sim.DefaultConfig()
			cfg.ParticleCount = 64
			cfg.SpawnSpan = 50
			cfg.VelocitySpan = 2

			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ParticleCount()).To(Equal(64))

			for _, p := range s.Particles() {
				for axis := vector.AxisX; axis <= vector.AxisZ; axis++ {
					Expect(p.Position.Axis(axis)).To(BeNumerically(">=", 0))
					Expect(p.Position.Axis(axis)).To(BeNumerically("<", 50))
					Expect(p.Velocity.Axis(axis)).To(BeNumerically(">=", 0))
					Expect(p.Velocity.Axis(axis)).To(BeNumerically("<", 2))
				}
			}
		})

		It("uses the default volume", func() {
			s, err := sim.New(sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Origin()).To(Equal(vector.Vec3{}))
			Expect(s.Width()).To(BeEquivalentTo(sim.DefaultExtent))
			Expect(s.Height()).To(BeEquivalentTo(sim.DefaultExtent))
			Expect(s.Depth()).To(BeEquivalentTo(sim.DefaultExtent))
			Expect(s.Gravity()).To(BeEquivalentTo(float32(sim.DefaultGravity)))
		})

		It("is reproducible for a fixed seed", func() {
			cfg := sim.DefaultConfig()
			cfg.ParticleCount = 10
			cfg.Seed = 42

			a, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Particles()).To(Equal(b.Particles()))
		})

		DescribeTable("rejects degenerate configurations",
			func(mutate func(*sim.Config), field string) {
				cfg := sim.DefaultConfig()
				mutate(&cfg)

				_, err := sim.New(cfg)
				Expect(err).To(MatchError(sim.ErrInvalidConfig))

				var cerr *sim.ConfigError
				Expect(errors.As(err, &cerr)).To(BeTrue())
				Expect(cerr.Field).To(Equal(field))
			},
			Entry("negative count", func(c *sim.Config) { c.ParticleCount = -1 }, "ParticleCount"),
			Entry("zero width", func(c *sim.Config) { c.Width = 0 }, "Width"),
			Entry("inverted height", func(c *sim.Config) { c.Height = -10 }, "Height"),
			Entry("infinite depth", func(c *sim.Config) { c.Depth = float32(math.Inf(1)) }, "Depth"),
			Entry("nan gravity", func(c *sim.Config) { c.Gravity = float32(math.NaN()) }, "Gravity"),
			Entry("negative radius", func(c *sim.Config) { c.InteractionRadius = -1 }, "InteractionRadius"),
			Entry("restitution above one", func(c *sim.Config) { c.Restitution = 1.5 }, "Restitution"),
			Entry("negative restitution", func(c *sim.Config) { c.Restitution = -0.8 }, "Restitution"),
			Entry("negative spawn span", func(c *sim.Config) { c.SpawnSpan = -1 }, "SpawnSpan"),
		)

		It("names a bad extent once", func() {
			cfg := sim.DefaultConfig()
			cfg.Width = 0

			_, err := sim.New(cfg)
			Expect(err).To(MatchError("sim: invalid configuration: Width = 0: must be finite and positive"))
		})

		It("accepts an empty population", func() {
			cfg := sim.DefaultConfig()
			cfg.ParticleCount = 0
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
			s.Advance(0.1)
			Expect(s.ParticleCount()).To(Equal(0))
		})

		It("rejects non-finite supplied particles", func() {
			bad := []physics.Particle{{Position: vector.New(float32(math.NaN()), 0, 0)}}
			_, err := sim.NewWithParticles(sim.DefaultConfig(), bad)
			Expect(err).To(MatchError(sim.ErrInvalidParticle))
		})

		It("copies supplied particles", func() {
			ps := []physics.Particle{{Position: vector.New(1, 2, 3)}}
			s, err := sim.NewWithParticles(sim.DefaultConfig(), ps)
			Expect(err).NotTo(HaveOccurred())

			ps[0].Position = vector.New(9, 9, 9)
			p, ok := s.Particle(0)
			Expect(ok).To(BeTrue())
			Expect(p.Position).To(Equal(vector.New(1, 2, 3)))
			Expect(s.Config().ParticleCount).To(Equal(1))
		})
	})

	Describe("stepping", func() {
		It("decreases vertical velocity linearly under gravity alone", func() {
			v0 := vector.New(1, 5, -2)
			s, err := sim.NewWithParticles(gravityOnly(), []physics.Particle{{Position: vector.New(100, 100, 100), Velocity: v0}})
			Expect(err).NotTo(HaveOccurred())

			const (
				dt = 0.05
				n  = 40
			)
			for i := 0; i < n; i++ {
				s.Step(dt)
			}

			p, _ := s.Particle(0)
			Expect(float64(p.Velocity.Y)).To(BeNumerically("~", 5-sim.DefaultGravity*dt*n, 1e-3))
			Expect(p.Velocity.X).To(Equal(v0.X))
			Expect(p.Velocity.Z).To(Equal(v0.Z))
			Expect(s.Frame()).To(Equal(n))
			Expect(s.Time()).To(BeNumerically("~", dt*n, 1e-5))
		})

		It("approximates free fall from rest", func() {
			s, err := sim.NewWithParticles(gravityOnly(), []physics.Particle{{}})
			Expect(err).NotTo(HaveOccurred())

			const (
				dt = 0.001
				n  = 1000
			)
			for i := 0; i < n; i++ {
				s.Step(dt)
			}

			p, _ := s.Particle(0)
			exact := -0.5 * sim.DefaultGravity * (dt * n) * (dt * n)
			Expect(float64(p.Position.Y)).To(BeNumerically("~", exact, 0.5*sim.DefaultGravity*dt*dt*n+5e-3))
		})

		It("applies a gravity change from the next step only", func() {
			s, err := sim.NewWithParticles(gravityOnly(), []physics.Particle{{Position: vector.New(50, 50, 50)}})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.SetGravity(0)).To(Succeed())
			p, _ := s.Particle(0)
			Expect(p.Velocity.Y).To(BeZero())

			s.Step(1)
			p, _ = s.Particle(0)
			Expect(p.Velocity.Y).To(BeZero())
			Expect(s.Gravity()).To(BeZero())
		})

		It("rejects non-finite gravity and keeps the old value", func() {
			s, err := sim.New(gravityOnly())
			Expect(err).NotTo(HaveOccurred())

			Expect(s.SetGravity(float32(math.NaN()))).To(MatchError(sim.ErrInvalidConfig))
			Expect(s.SetGravity(float32(math.Inf(-1)))).To(MatchError(sim.ErrInvalidConfig))
			Expect(s.Gravity()).To(BeEquivalentTo(float32(sim.DefaultGravity)))

			Expect(s.SetGravity(-3)).To(Succeed())
			Expect(s.Gravity()).To(BeEquivalentTo(-3))
		})

		It("produces no force between coincident particles", func() {
			cfg := sim.DefaultConfig()
			at := vector.New(100, 100, 100)
			s, err := sim.NewWithParticles(cfg, []physics.Particle{{Position: at}, {Position: at}})
			Expect(err).NotTo(HaveOccurred())

			s.Step(0.1)

			for _, p := range s.Particles() {
				Expect(p.IsFinite()).To(BeTrue())
				Expect(p.Velocity.X).To(BeZero())
				Expect(p.Velocity.Z).To(BeZero())
				Expect(float64(p.Velocity.Y)).To(BeNumerically("~", -sim.DefaultGravity*0.1, 1e-5))
			}
		})

		It("ignores pairs beyond the interaction radius", func() {
			cfg := sim.DefaultConfig()
			cfg.Gravity = 0
			ps := []physics.Particle{
				{Position: vector.New(10, 10, 10)},
				{Position: vector.New(30, 20, 21)}, // L1 = 41
			}
			s, err := sim.NewWithParticles(cfg, ps)
			Expect(err).NotTo(HaveOccurred())

			s.Step(0.1)

			got := s.Particles()
			Expect(got[0].Velocity.IsZero()).To(BeTrue())
			Expect(got[1].Velocity.IsZero()).To(BeTrue())
			Expect(got[0].Position).To(Equal(ps[0].Position))
		})

		It("pushes close neighbours apart symmetrically", func() {
			cfg := sim.DefaultConfig()
			cfg.Gravity = 0
			ps := []physics.Particle{
				{Position: vector.New(50, 50, 50)},
				{Position: vector.New(52, 50, 50)},
			}
			s, err := sim.NewWithParticles(cfg, ps)
			Expect(err).NotTo(HaveOccurred())

			s.Step(0.1)

			got := s.Particles()
			Expect(got[0].Velocity.X).To(BeNumerically("<", 0))
			Expect(got[1].Velocity.X).To(BeNumerically(">", 0))
			Expect(got[0].Velocity.X).To(Equal(-got[1].Velocity.X))
		})

		It("does not depend on the order of the collection", func() {
			rng := rand.New(rand.NewSource(3))
			ps := make([]physics.Particle, 40)
			for i := range ps {
				ps[i] = physics.NewRandomParticle(rng, 30, 5)
			}
			perm := rng.Perm(len(ps))
			shuffled := make([]physics.Particle, len(ps))
			for i, j := range perm {
				shuffled[i] = ps[j]
			}

			a, err := sim.NewWithParticles(sim.DefaultConfig(), ps)
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.NewWithParticles(sim.DefaultConfig(), shuffled)
			Expect(err).NotTo(HaveOccurred())

			a.Step(0.05)
			b.Step(0.05)

			ga, gb := a.Particles(), b.Particles()
			for i, j := range perm {
				expectVec(gb[i].Position, ga[j].Position, 1e-3)
				expectVec(gb[i].Velocity, ga[j].Velocity, 1e-3)
			}
		})

		It("keeps the particle count stable", func() {
			cfg := sim.DefaultConfig()
			cfg.ParticleCount = 30
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 20; i++ {
				s.Step(0.1)
				s.ResolveCollisions()
			}
			Expect(s.ParticleCount()).To(Equal(30))
		})
	})

	Describe("collisions", func() {
		It("reflects a particle below the origin and damps its velocity", func() {
			ps := []physics.Particle{{Position: vector.New(-5, 100, 100), Velocity: vector.New(-3, 0, 0)}}
			s, err := sim.NewWithParticles(sim.DefaultConfig(), ps)
			Expect(err).NotTo(HaveOccurred())

			hits := s.ResolveCollisions()

			Expect(hits).To(Equal(1))
			p, _ := s.Particle(0)
			expectVec(p.Position, vector.New(5, 100, 100), 1e-5)
			expectVec(p.Velocity, vector.New(2.4, 0, 0), 1e-5)
		})

		It("uses the configured restitution", func() {
			cfg := sim.DefaultConfig()
			cfg.Restitution = 1
			ps := []physics.Particle{{Position: vector.New(100, 205, 100), Velocity: vector.New(0, 7, 0)}}
			s, err := sim.NewWithParticles(cfg, ps)
			Expect(err).NotTo(HaveOccurred())

			s.ResolveCollisions()

			p, _ := s.Particle(0)
			expectVec(p.Position, vector.New(100, 195, 100), 1e-5)
			expectVec(p.Velocity, vector.New(0, -7, 0), 1e-6)
		})

		It("keeps a bouncing cloud inside the volume", func() {
			cfg := gravityOnly()
			cfg.ParticleCount = 50
			cfg.Seed = 9
			s, err := sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 200; i++ {
				s.Advance(0.1)
			}

			box := s.Bounds()
			for _, p := range s.Particles() {
				Expect(box.Contains(p.Position)).To(BeTrue(), "particle escaped: %+v", p)
			}
		})
	})

	Describe("bounds", func() {
		var s *sim.Simulation

		BeforeEach(func() {
			var err error
			s, err = sim.NewWithParticles(gravityOnly(), []physics.Particle{{Position: vector.New(60, 10, 10)}})
			Expect(err).NotTo(HaveOccurred())
		})

		It("maps width, height and depth to the far corner", func() {
			Expect(s.SetWidth(50)).To(Succeed())
			Expect(s.SetHeight(60)).To(Succeed())
			Expect(s.SetDepth(70)).To(Succeed())

			Expect(s.Corner()).To(Equal(vector.New(50, 60, 70)))
			Expect(s.Width()).To(BeEquivalentTo(50))
			Expect(s.Config().Depth).To(BeEquivalentTo(70))
		})

		It("does not move particles until the next collision pass", func() {
			Expect(s.SetWidth(50)).To(Succeed())
			p, _ := s.Particle(0)
			Expect(p.Position.X).To(BeEquivalentTo(60))

			s.ResolveCollisions()
			p, _ = s.Particle(0)
			Expect(p.Position.X).To(BeEquivalentTo(40))
		})

		It("rejects degenerate extents and keeps the old value", func() {
			Expect(s.SetWidth(0)).To(MatchError(sim.ErrInvalidBounds))
			Expect(s.SetHeight(-3)).To(MatchError(sim.ErrInvalidBounds))
			Expect(s.SetDepth(float32(math.NaN()))).To(MatchError(sim.ErrInvalidBounds))
			Expect(s.Corner()).To(Equal(vector.New(sim.DefaultExtent, sim.DefaultExtent, sim.DefaultExtent)))
		})
	})

	Describe("read access", func() {
		var s *sim.Simulation

		BeforeEach(func() {
			var err error
			s, err = sim.NewWithParticles(sim.DefaultConfig(), []physics.Particle{
				{Position: vector.New(1, 2, 3), Velocity: vector.New(4, 5, 6)},
				{Position: vector.New(7, 8, 9), Velocity: vector.New(10, 11, 12)},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("packs positions and velocities six floats per particle", func() {
			buf := s.Pack(nil)
			Expect(buf).To(HaveLen(sim.PackStride * 2))
			Expect(buf).To(Equal([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}))

			buf = s.Pack(buf[:0])
			Expect(buf).To(HaveLen(12))
		})

		It("appends positions into caller storage", func() {
			dst := make([]vector.Vec3, 0, 2)
			dst = s.Positions(dst)
			Expect(dst).To(Equal([]vector.Vec3{vector.New(1, 2, 3), vector.New(7, 8, 9)}))
		})

		It("hands out copies only", func() {
			ps := s.Particles()
			ps[0].Position = vector.New(100, 100, 100)

			buf := s.Pack(nil)
			buf[0] = -1

			p, _ := s.Particle(0)
			Expect(p.Position).To(Equal(vector.New(1, 2, 3)))
		})

		It("reports out of range indices", func() {
			_, ok := s.Particle(2)
			Expect(ok).To(BeFalse())
			_, ok = s.Particle(-1)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("resize", func() {
		var s *sim.Simulation

		BeforeEach(func() {
			cfg := sim.DefaultConfig()
			cfg.ParticleCount = 10
			cfg.SpawnSpan = 20
			var err error
			s, err = sim.New(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("truncates", func() {
			before := s.Particles()
			Expect(s.Resize(4)).To(Succeed())
			Expect(s.ParticleCount()).To(Equal(4))
			Expect(s.Particles()).To(Equal(before[:4]))
			Expect(s.Config().ParticleCount).To(Equal(4))
		})

		It("extends with fresh particles", func() {
			before := s.Particles()
			Expect(s.Resize(25)).To(Succeed())
			Expect(s.ParticleCount()).To(Equal(25))

			after := s.Particles()
			Expect(after[:10]).To(Equal(before))
			for _, p := range after[10:] {
				Expect(p.Position.X).To(BeNumerically("<", 20))
			}
		})

		It("never empties the collection silently", func() {
			Expect(s.Resize(10)).To(Succeed())
			Expect(s.ParticleCount()).To(Equal(10))
			Expect(s.Resize(-1)).To(MatchError(sim.ErrInvalidConfig))
			Expect(s.ParticleCount()).To(Equal(10))
		})
	})

	It("toggles pairwise interaction", func() {
		s, err := sim.New(sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Interaction().Enabled).To(BeTrue())
		s.SetInteraction(false)
		Expect(s.Interaction().Enabled).To(BeFalse())
		Expect(s.Config().EnableInteraction).To(BeFalse())
	})
})
