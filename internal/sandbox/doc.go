// Package sandbox provides containerized execution of build-script
// commands via the Docker Engine API.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - One-shot task containers: each sh() command runs in its own
//     container that is created, started, waited on, and removed
//   - Container label management (kaji.* labels identify sandbox
//     containers and record which project/task created them)
//   - Cleanup of leftover sandbox containers ("kaji clean")
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package sandbox
