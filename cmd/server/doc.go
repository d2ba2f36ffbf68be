// Package main is the entry point for the portfolio server.
//
// The server hosts the portfolio site's backend: a sandboxed code runner for
// Python, JavaScript, C, C++ and Java snippets, two cached demo scorers
// (mood analysis and pass prediction), the contact form log, markdown blog
// rendering and file downloads. The same executor and scorers are exposed
// as MCP tools on the HTTP listener.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main
