// Package app wires the heatmap components from configuration.
package app
