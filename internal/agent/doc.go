// Package agent runs the conversation loop that turns one user utterance
// into an answer.
//
// An Orchestrator owns one memory window. For every utterance it asks the
// model for a reply, executes the tool calls the reply requests in the order
// they were emitted, folds the results back into the window and asks again,
// until the model answers without tool calls or the iteration cap is reached.
//
// The system directive is rendered for every model call from the injected
// clock and is never stored in the window.
package agent
