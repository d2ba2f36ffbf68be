// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// Three tools are registered:
//
//	execute_code   run a python, javascript, cpp, c or java snippet
//	analyze_mood   lexicon sentiment analysis (cached)
//	predict_pass   weighted pass/fail prediction (cached)
//
// Tool failures are returned as error results rather than protocol errors,
// so clients see the same messages as the HTTP API.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, sandboxExecutor, scores)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	router.Any(config.MCP.Path, gin.WrapH(server.Handler()))
package mcpserver
