// Package domain contains the core types of the HeyDev publishing session:
// the shared session state document, topics, content records and the
// protocol error taxonomy.
//
// The domain layer has no dependencies on transports, stores or
// collaborators. Both the agent flow and the presentation adapters operate
// on the same State document; see pkg/session for the write discipline.
package domain
