// Package export renders a high-resolution heatmap and delivers it.
//
// An export runs through a fixed sequence of states:
//
//	Idle -> Preparing -> Rendering -> Encoding -> Delivering
//	     -> {Succeeded, FailedWithFallback, FailedTerminal} -> Idle
//
// Preparing re-runs the transform and resolves images with the export timeout.
// Rendering draws onto an off-screen canvas at the tier resolution, at least
// twice so images that finished late are included. Delivering either saves the
// JPEG locally (standalone) or sends it to the host's user (embedded). A failed
// send falls back to a lower-quality local save.
//
// Only one export runs at a time; a second request gets ErrExportInProgress.
package export
