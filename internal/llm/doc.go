// Package llm is the language model collaborator: a client for
// OpenAI-compatible chat completion endpoints (Groq, OpenAI, local
// servers) that speaks in memory.Turn values and tool definitions.
//
//	client := llm.NewClient(apiKey, llm.DefaultModel,
//		llm.WithBaseURL("https://api.groq.com/openai/v1"),
//		llm.WithTemperature(0),
//	)
//	turn, err := client.Complete(ctx, directive, window.View(), registry.Definitions())
package llm
