// Package tools holds the catalogue of tools the agent may call and
// dispatches model tool calls to them.
//
// The same catalogue backs the conversation orchestrator and the stdio MCP
// server. Dispatch never fails: whatever goes wrong is rendered as text
// starting with common.ErrorPrefix, so the model can read it and carry on.
package tools
