// Package tts contains the speech synthesizers used for narration: a remote
// client for the Google Translate speech endpoint and a local synthesizer that
// drives the operating system's speech command.
package tts
