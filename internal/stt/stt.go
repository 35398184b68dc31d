// Package stt turns windows of call audio into text.
package stt

import "context"

// Transcriber converts one WAV encoded audio window to text. An empty string
// with a nil error means nothing intelligible was said.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, wav []byte, language string) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	return f(ctx, wav, language)
}
