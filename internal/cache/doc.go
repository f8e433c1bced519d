// Package cache stores synthesized speech so repeated narration of the same
// phrase does not go back to the network. It has an in-memory LRU tier and an
// optional zstd compressed disk tier that survives restarts.
package cache
