package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vector"
)

const (
	canvasCols      = 60
	canvasRows      = 22
	historyCapacity = 300
	gravityStep     = 1.0
	resizeStep      = 100
	rotateStep      = 0.1
)

type TickMsg time.Time

// Model drives a simulation at a fixed frame rate and draws it as a braille
// point cloud next to a stats panel.
type Model struct {
	sim       *sim.Simulation
	initial   sim.Config
	title     string
	dt        float32
	interval  time.Duration
	canvas    *Canvas
	camera    *Camera
	theme     Theme
	running   bool
	showHelp  bool
	positions []vector.Vec3
	energy    []float64
	height    []float64
	visible   int
	bounces   int
	err       error
}

// NewModel wraps s. Reset rebuilds the simulation from the configuration s
// had at this point.
func NewModel(s *sim.Simulation, dt float32, fps int, title string) Model {
	if fps <= 0 {
		fps = 30
	}
	m := Model{
		sim:      s,
		initial:  s.Config(),
		title:    title,
		dt:       dt,
		interval: time.Second / time.Duration(fps),
		canvas:   NewCanvas(canvasCols, canvasRows),
		camera:   NewCamera(),
		theme:    Themes[0],
		running:  true,
		energy:   make([]float64, 0, historyCapacity),
		height:   make([]float64, 0, historyCapacity),
	}
	m.draw()
	return m
}

// WithTheme selects the starting theme by name.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "n":
			if !m.running {
				m.step()
			}
		case "up", "k":
			m.err = m.sim.SetGravity(m.sim.Gravity() + gravityStep)
		case "down", "j":
			m.err = m.sim.SetGravity(m.sim.Gravity() - gravityStep)
		case "i":
			m.sim.SetInteraction(!m.sim.Interaction().Enabled)
		case "]":
			m.err = m.sim.Resize(m.sim.ParticleCount() + resizeStep)
		case "[":
			m.err = m.sim.Resize(max(0, m.sim.ParticleCount()-resizeStep))
		case "t":
			m.theme = nextTheme(m.theme.Name)
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(rotateStep)
		case "X":
			m.camera.RotateX(-rotateStep)
		case "y":
			m.camera.RotateY(rotateStep)
		case "Y":
			m.camera.RotateY(-rotateStep)
		case "z":
			m.camera.RotateZ(rotateStep)
		case "Z":
			m.camera.RotateZ(-rotateStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
		m.draw()
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		return m, m.tick()
	}
	return m, nil
}

// step advances one host frame: integrate, then resolve collisions.
func (m *Model) step() {
	m.bounces = m.sim.Advance(m.dt)
	m.energy = appendCapped(m.energy, metrics.MeanKineticEnergy(m.sim))
	m.height = appendCapped(m.height, metrics.Height(m.sim))
}

func appendCapped(xs []float64, v float64) []float64 {
	if len(xs) == historyCapacity {
		copy(xs, xs[1:])
		xs = xs[:len(xs)-1]
	}
	return append(xs, v)
}

func (m *Model) reset() {
	s, err := sim.New(m.initial)
	if err != nil {
		m.err = err
		return
	}
	m.sim = s
	m.energy = m.energy[:0]
	m.height = m.height[:0]
	m.bounces = 0
	m.err = nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.positions = m.sim.Positions(m.positions[:0])
	m.visible = Render(m.canvas, m.camera, m.sim.Bounds(), m.positions)
}

// Simulation exposes the driven simulation, which reset replaces.
func (m Model) Simulation() *sim.Simulation { return m.sim }

func (m Model) Running() bool { return m.running }

func (m Model) View() string {
	st := newStyles(m.theme)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	if m.running {
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	interaction := "off"
	if m.sim.Interaction().Enabled {
		interaction = fmt.Sprintf("on (r=%.0f)", m.sim.Interaction().Radius)
	}
	n := m.sim.ParticleCount()

	row("Frame", fmt.Sprintf("%d", m.sim.Frame()))
	row("Time", fmt.Sprintf("%.2fs", m.sim.Time()))
	row("Particles", fmt.Sprintf("%d", n))
	row("Gravity", fmt.Sprintf("%.2f", m.sim.Gravity()))
	row("Repulsion", interaction)
	row("Restitution", fmt.Sprintf("%.2f", m.sim.Restitution()))
	row("Bounces", fmt.Sprintf("%d", m.bounces))
	if n > 0 {
		row("In view", Gauge(float64(m.visible)/float64(n), 16))
	}
	if len(m.height) > 0 {
		row("Height", fmt.Sprintf("%.1f ", m.height[len(m.height)-1])+Sparkline(m.height, 16))
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if m.err != nil {
		s.WriteString(st.paused.Render(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString(st.help.Render(strings.Join([]string{
			"space  pause/resume   n  single step",
			"r      reset          q  quit",
			"↑/↓    gravity ±1     i  repulsion",
			"[ ]    particles ±100 t  theme",
			"x y z  rotate (shift reverses)",
			"+ -    zoom           ?  help",
		}, "\n")))
	} else {
		s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit ?:Help"))
	}

	canvasView := st.canvas.Render(m.canvas.String())
	statsView := st.panel.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
