// Package viz renders parameter sets and experiment results for the terminal.
//
//   - [RenderSet]: aligned key/value listing of a parsed parameter set
//   - [PlotList]: asciigraph line plot of a float list
//   - [Sparkline]: one-line summary of a float list
//
// Styles are plain lipgloss styles; lipgloss drops colors automatically when
// the output is not a terminal.
package viz
