// Package assets knows where the game's audio lives. It holds the phrase
// catalog, fetches asset bytes from a directory or an HTTP base URL, and
// prefetches catalog phrases through a remote synthesizer.
package assets
