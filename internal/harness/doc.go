// Package harness runs tour scenarios against the reconciliation core.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: remote_plus_local
//	description: "Remote and local stamps are OR-merged"
//	identifier: u1
//	set:
//	  name: map_noar
//	  spots: [spot7, spot8, spot9]
//	  required: 3
//	setup:
//	  local: [spot8]
//	  remote: { spot7: true }
//	passes:
//	  - expect:
//	      owned: { spot7: true, spot8: true, spot9: false }
//	      count: 2
//	      completed: false
//	  - visit: [spot9]
//	    faults: { remote_reads: "network unreachable" }
//	    expect:
//	      completed: true
//	      notify: true
//
// Each pass optionally records visits, then runs one session refresh.
// Faults apply to that pass only. An empty identifier is anonymous.
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory store and remote tree with a
// fixed clock, so the per-pass trace is reproducible and can be compared
// against golden files in testdata/golden.
package harness
