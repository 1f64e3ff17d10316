// Package pkg provides the libraries behind topoview, a live viewer for
// private cloud topologies.
//
// # Overview
//
// A backend publishes one topology document: servers, network switches,
// storage arrays and backup units, each with a health status, plus a map
// from health status to color. topoview polls that document, lays the nodes
// out on a fixed grid and hands the result to a render adapter.
//
// # Architecture
//
//	backend /api/topology_data
//	         ↓
//	    [client] (fetch + retry, typed errors)
//	         ↓
//	    [topology] (parse, required collections, dangling references)
//	         ↓
//	    [layout] (deterministic coordinates)
//	         ↓
//	    [scene] (nodes, edges, legend, hover text)
//	         ↓
//	    [render/text], [render/dot], [server]
//
// [poller] drives that chain on an interval and owns the display state
// (loading, ready, stale, failed). [alert] watches accepted documents for
// servers turning critical.
//
// # Supporting Packages
//
// [config] layers defaults, a TOML file, TOPOVIEW_ environment variables and
// flags. [errors] carries the error codes surfaced to users. [observability]
// holds the hook registry that [metrics] implements with Prometheus.
// [httputil] provides the retry policy and [buildinfo] the version.
//
// [poller]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/poller
// [alert]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/alert
// [config]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/observability
// [metrics]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/metrics
// [httputil]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/buildinfo
//
// [client]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/client
// [topology]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/topology
// [layout]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/layout
// [scene]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/scene
// [render/text]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/render/text
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/render/dot
// [server]: https://pkg.go.dev/github.com/matzehuels/topoview/pkg/server
package pkg
