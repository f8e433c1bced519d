// Package playback provides output devices for decoded clips: an oto backed
// device that mixes any number of concurrent tracks on the system's sound
// card, and a null device that simulates playback timing without sound.
package playback
