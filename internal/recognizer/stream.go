package recognizer

import (
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// audioStream pumps capture audio into a provider websocket and hands
// every received frame to the provider for decoding. The first failure
// on either side is reported once, then both directions shut down.
type audioStream struct {
	conn     *websocket.Conn
	audio    io.ReadCloser
	chunk    int
	closeMsg []byte

	handle  func(frame []byte)
	onError func(err error)

	done    chan struct{}
	once    sync.Once
	errOnce sync.Once
	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func newAudioStream(conn *websocket.Conn, audio io.ReadCloser, chunk int, closeMsg []byte, handle func([]byte), onError func(error)) *audioStream {
	return &audioStream{
		conn:     conn,
		audio:    audio,
		chunk:    chunk,
		closeMsg: closeMsg,
		handle:   handle,
		onError:  onError,
		done:     make(chan struct{}),
	}
}

func (s *audioStream) start() {
	s.wg.Add(2)
	go s.pumpLoop()
	go s.readLoop()
}

func (s *audioStream) pumpLoop() {
	defer s.wg.Done()

	buf := make([]byte, s.chunk)
	for {
		n, err := s.audio.Read(buf)
		if n > 0 {
			s.writeMu.Lock()
			werr := s.conn.WriteMessage(websocket.BinaryMessage, buf[:n])
			s.writeMu.Unlock()
			if werr != nil {
				s.fail(fmt.Errorf("sending audio: %w", werr))
				return
			}
		}
		if err != nil {
			if !s.closing() {
				s.fail(fmt.Errorf("reading audio: %w", err))
			}
			return
		}
	}
}

func (s *audioStream) readLoop() {
	defer s.wg.Done()

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing() {
				s.fail(fmt.Errorf("reading results: %w", err))
			}
			return
		}
		s.handle(frame)
	}
}

func (s *audioStream) closing() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// fail reports the first error and tears the stream down. Called from
// the loops, so it must not wait for them.
func (s *audioStream) fail(err error) {
	s.errOnce.Do(func() { s.onError(err) })
	s.close()
}

func (s *audioStream) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.audio.Close()
		s.writeMu.Lock()
		if len(s.closeMsg) > 0 {
			_ = s.conn.WriteMessage(websocket.TextMessage, s.closeMsg)
		}
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}

// shutdown closes the stream and waits for both loops to exit, so no
// callback fires after it returns.
func (s *audioStream) shutdown() {
	s.close()
	s.wg.Wait()
}
