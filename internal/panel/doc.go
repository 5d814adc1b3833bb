// Package panel renders the node's status page.
//
// The page template is embedded into the binary with go:embed so the node
// has no runtime dependency on external files. It shows the latest reading,
// the link state, the number of readings waiting for upload and the time of
// the last update, and refreshes itself every RefreshSeconds.
package panel
