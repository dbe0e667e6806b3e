// Package viz renders a running particle simulation in the terminal.
//
// [Model] is a Bubble Tea model that advances a simulation at a fixed frame
// rate and projects particle positions through an orbiting [Camera] onto a
// braille [Canvas], with a lipgloss stats panel and an asciigraph history
// of mean kinetic energy.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Rebuild from the starting configuration
//	Up/Dn - Gravity up/down
//	I     - Toggle repulsion
//	[ ]   - Remove/add particles
//	X Y Z - Rotate the camera
//	+ -   - Zoom
//	T     - Cycle color themes
//	?     - Show key help
package viz
