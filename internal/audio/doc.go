// Package audio coordinates every sound the game makes: narrated speech,
// short sound effects, repeatable instructions and looping background music.
//
// A single Service owns the process-wide audio state. Narration prefers a
// remote synthesizer and falls back to the local one when the remote is slow,
// unreachable or produces unplayable audio. Starting new narration or calling
// StopAll silences whatever came before, so at most one narration is ever
// audible. Background music is managed separately and only stops when its
// handle is stopped, StopMusic is called, or audio is disabled.
//
// All methods are safe for concurrent use and return without waiting for
// audio to finish. Failures are logged and never surface to callers.
package audio
