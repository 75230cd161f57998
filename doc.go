// SPDX-License-Identifier: GPL-3.0-or-later

// Package matrix provides the ambient primitives shared by every package in
// this module: structured logging, error classification, and a common
// configuration pattern.
//
// # Core Abstraction
//
// Matrix is a component framework for real-time monitor and control
// pipelines. Independent components run as concurrent goroutines, exchange
// typed data streams through [github.com/nrao/matrix/dataio], and are
// orchestrated through the hierarchical document served by
// [github.com/nrao/matrix/keymaster]. This root package holds nothing
// domain-specific; every other package in the module imports it for
// logging and configuration.
//
// # Available Primitives
//
//   - [SLogger]: structured logging interface, compatible with [log/slog.Logger]
//   - [ErrClassifier]: classifies errors into short labels for structured logging
//   - [Config]: common configuration (clock, logger, error classifier) threaded
//     through constructors across the module
//
// # Observability
//
// All packages in this module log through [SLogger]. By default, logging
// is disabled ([DefaultLogger] discards everything); set [Config.Logger]
// to a real [*slog.Logger] to enable it. Every Keymaster transaction and
// transport bind/connect is tagged with a request ID minted by
// [github.com/nrao/matrix/matrixid.New], so related log lines across
// packages can be correlated by that ID. The data plane's per-frame path
// is not tagged: it is the hot path, and minting an ID per frame would
// cost more than the correlation is worth there.
//
// Lifecycle and protocol events (bind, connect, state transition, publish)
// are logged at Info; per-frame I/O is logged at Debug.
//
// # Design Boundaries
//
// This package intentionally provides only the ambient primitives. Transport
// selection, the document model, the FSM, and the component lifecycle live
// in their own packages so that each can be imported without pulling in the
// others.
package matrix
