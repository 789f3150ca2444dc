// Package recognizer contains the speech providers that feed the
// caption engine: a vosk-server client, a Deepgram streaming client
// and a script replay provider for rehearsals.
package recognizer

import (
	"context"
	"io"
)

// Callbacks receive recognition results from a running provider. Nil
// slots are skipped.
type Callbacks struct {
	OnInterim func(language, text string)
	OnFinal   func(language, text string)
	OnError   func(err error)
}

func (c Callbacks) emitInterim(language, text string) {
	if c.OnInterim != nil {
		c.OnInterim(language, text)
	}
}

func (c Callbacks) emitFinal(language, text string) {
	if c.OnFinal != nil {
		c.OnFinal(language, text)
	}
}

func (c Callbacks) emitError(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

// AudioSource opens the capture stream fed to streaming providers.
// Closing the returned reader ends the stream.
type AudioSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
