// Package boxkalman implements an adaptive Kalman filter for tracking
// bounding boxes in image space.
//
// Responsibilities: constant-velocity state propagation, recursive Bayesian
// correction, online estimation of process and measurement noise from
// residual statistics, and chi-square gating distances for data association.
// Key types: Filter, NoiseState, StateArena.
//
// The 8-dimensional state [x, y, a, h, vx, vy, va, vh] holds the bounding
// box centre position (x, y), aspect ratio a, height h, and their
// velocities. The box location (x, y, a, h) is taken as a direct linear
// observation of the state.
//
// Detection, association, and track lifecycle belong to the caller; this
// package performs no I/O. Each track owns exactly one NoiseState, which
// must never be shared between tracks or touched concurrently.
package boxkalman
