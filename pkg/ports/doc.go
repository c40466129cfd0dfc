// Package ports defines the interfaces between the HeyDev core and its
// collaborators: state persistence, repository analysis, draft generation
// and content publication.
//
// The core depends only on these interfaces; adapters live in
// pkg/adapters and internal/adapters.
package ports
