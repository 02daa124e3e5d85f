// Package app wires the loader, registry, plan builder and scheduler into a
// runnable application. Each App owns an isolated logger tagged with a
// unique run id, so concurrent in-process runs never interleave their
// records.
package app
