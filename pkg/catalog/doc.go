// Package catalog discovers remotely-defined automation workflows and turns
// them into tools the language model can call.
//
// Workflows live on an n8n-style automation server and are enumerated over a
// generic tool-invocation protocol (MCP). By convention every workflow is
// triggered by a webhook whose path equals the workflow name, and the webhook
// node's free-text notes document the workflow's parameters. Discovery turns
// each workflow into a tool definition:
//
//	caller := catalog.NewMCPCaller(cfg, logger)
//	disc := catalog.NewDiscoverer(caller, catalog.NewDetailCache(catalog.DefaultCacheTTL), logger)
//	defs, names := disc.Discover(ctx)
//
// The returned name map recovers the original workflow name from the
// sanitized tool name at invocation time; Runner executes the workflow by
// posting the tool arguments to the webhook endpoint.
//
// Discovery is deliberately forgiving: a dead catalog server yields zero
// tools, and a single workflow with broken metadata degrades only its own
// description. Session startup never fails because of the catalog.
package catalog
