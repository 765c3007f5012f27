package model

import (
	"time"

	"github.com/google/uuid"
)

// Platform is the context an export runs in.
type Platform int

const (
	PlatformStandalone Platform = iota
	PlatformHostEmbedded
)

func (p Platform) String() string {
	if p == PlatformHostEmbedded {
		return "host-embedded"
	}
	return "standalone"
}

// DeliveryPath is how the encoded artifact reaches the user.
type DeliveryPath int

const (
	DeliveryLocalDownload DeliveryPath = iota
	DeliveryRemoteSend
)

func (d DeliveryPath) String() string {
	if d == DeliveryRemoteSend {
		return "remote-send"
	}
	return "local-download"
}

// ExportState is a state of the export state machine.
//
//	Idle -> Preparing -> Rendering -> Encoding -> Delivering
//	     -> {Succeeded, FailedWithFallback, FailedTerminal} -> Idle
type ExportState int

const (
	ExportIdle ExportState = iota
	ExportPreparing
	ExportRendering
	ExportEncoding
	ExportDelivering
	ExportSucceeded
	ExportFailedWithFallback
	ExportFailedTerminal
)

func (s ExportState) String() string {
	switch s {
	case ExportPreparing:
		return "preparing"
	case ExportRendering:
		return "rendering"
	case ExportEncoding:
		return "encoding"
	case ExportDelivering:
		return "delivering"
	case ExportSucceeded:
		return "succeeded"
	case ExportFailedWithFallback:
		return "failed-with-fallback"
	case ExportFailedTerminal:
		return "failed-terminal"
	default:
		return "idle"
	}
}

// Terminal reports whether the state ends an export.
func (s ExportState) Terminal() bool {
	return s == ExportSucceeded || s == ExportFailedWithFallback || s == ExportFailedTerminal
}

// ExportJob tracks one user-triggered export.
type ExportJob struct {
	ID           uuid.UUID
	TargetWidth  int
	TargetHeight int
	Platform     Platform
	Delivery     DeliveryPath
	State        ExportState
	History      []ExportState // states entered, in order

	Artifact     string // local path of a downloaded artifact, empty for remote sends
	ArtifactSize int
	Err          error // delivery or terminal failure reason

	StartedAt  time.Time
	FinishedAt time.Time
}
