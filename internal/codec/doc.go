// Package codec decodes MP3 and WAV assets into in-memory clips and renders
// them as signed 16-bit stereo PCM at a requested device rate and speed.
//
// Clips are immutable once decoded, so a single clip may back any number of
// concurrent playback sessions.
package codec
