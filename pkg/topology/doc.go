// Package topology defines the typed topology document fetched from the
// backend on every poll cycle.
//
// # Wire Format
//
// The backend serves a single JSON object at /api/topology_data:
//
//	{
//	  "private_cloud":    {"name": "Lab", "last_sync": "2025-01-02T03:04:05.000Z"},
//	  "servers":          [{"id": "s1", "name": "kvm-1", "health": "healthy",
//	                        "connected_switches": [{"switch_id": "sw1", "port": 3}]}],
//	  "network_switches": [{"id": "sw1", "name": "tor-1", "health": "degraded"}],
//	  "storage":          [],
//	  "backup":           [],
//	  "health_color_map": {"healthy": "green", "degraded": "orange"}
//	}
//
// Switches may also be sent under "switches". Every top-level key is required;
// a document missing one is rejected with a SCHEMA_ERROR (see pkg/errors).
// Node fields other than "id" are optional and fall back to sentinels when
// rendered. Identifiers and ports may be JSON strings or numbers.
//
// # Invariants
//
//   - Node ids are unique across all four collections.
//   - Collection order is preserved; it decides vertical placement.
//   - [HealthColorMap] preserves the key order of the JSON object and never
//     fails a lookup: unknown statuses resolve to [FallbackColor].
//   - Connections naming an unknown id are not errors. They are reported by
//     [Document.DanglingReferences] and dropped at render time.
//
// # Usage
//
//	doc, err := topology.Decode(r)
//	if errors.IsSchema(err) {
//	    // keep showing the previous scene
//	}
package topology
