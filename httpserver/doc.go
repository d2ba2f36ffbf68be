// Package httpserver exposes the site over HTTP.
//
// Routes:
//
//	POST /api/execute-code        compile and run a snippet in the sandbox
//	POST /api/mood-analysis       cached lexicon mood analysis
//	POST /api/pass-predict        cached pass/fail prediction
//	POST /api/contact             store a contact form message
//	GET  /api/blogs               list markdown posts
//	GET  /api/blogs/*filename     render one post to HTML
//	GET  /admin/contacts          list stored contact messages
//	GET  /download/...            resume and certificate downloads
//	GET  /healthz                 liveness probe
//
// Expected failures are reported as JSON bodies with "success": false. The
// MCP endpoint, when enabled, is mounted on the same engine.
package httpserver
