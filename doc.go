// Package heydev is a human-in-the-loop content publishing assistant.
//
// A session analyzes a GitHub repository's recent activity, proposes
// content topics, drafts content for the selected topic, and publishes
// only after explicit confirmation. The agent never acts on its own at a
// decision point: progress suspends at typed gates until a human responds,
// and every response is validated against the current session state before
// it is accepted.
//
// The protocol lives in pkg/gate and pkg/flow, session state in pkg/domain
// and pkg/session, and the collaborator interfaces in pkg/ports. Hosts
// embed the pipeline through New:
//
//	hub := heydev.New(heydev.Config{
//		Analyzer:  analyzer,
//		Drafter:   drafter,
//		Publisher: publisher,
//	})
//	_ = hub.Start(ctx, "my-session")
//	// watch hub.Board("my-session") for gates, respond,
//	// then hub.Wait(ctx, "my-session")
//
// The heydev command wraps the same hub with an interactive terminal
// runner, an HTTP API, and an MCP server.
package heydev
