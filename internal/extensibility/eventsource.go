// Package extensibility holds the pluggable inputs of the runtime: event sources that turn
// user commands into chart events, and chart instrumentation.
package extensibility

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/comalice/countdown/internal/core"
	"github.com/comalice/countdown/internal/primitives"
)

// ErrUnknownCommand is returned by ParseCommand for input it does not recognise.
var ErrUnknownCommand = errors.New("unknown command")

var (
	_ core.EventSource = (*ChannelEventSource)(nil)
	_ core.EventSource = (*LineEventSource)(nil)
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// Provides a simple way to feed external events into the Runtime.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Send offers evt without blocking and reports whether it was accepted.
func (s *ChannelEventSource) Send(evt primitives.Event) bool {
	select {
	case s.ch <- evt:
		return true
	default:
		return false
	}
}

// ParseCommand maps one line of text to a chart event:
//
//	set <seconds> | start | resume | pause | stop | reset | quit | exit
//
// The argument of set is passed through unparsed; the controller validates it.
func ParseCommand(line string) (primitives.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return primitives.Event{}, errors.Wrap(ErrUnknownCommand, "empty line")
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "set":
		return primitives.SetEvent(strings.Join(fields[1:], " ")), nil
	case "start", "resume":
		return primitives.NewEvent(primitives.EventStart, nil), nil
	case "pause":
		return primitives.NewEvent(primitives.EventPause, nil), nil
	case "stop", "reset":
		return primitives.NewEvent(primitives.EventStop, nil), nil
	case "quit", "exit":
		return primitives.NewEvent(primitives.EventTeardown, nil), nil
	default:
		return primitives.Event{}, errors.Wrapf(ErrUnknownCommand, "%q", cmd)
	}
}

// LineEventSource reads commands from r, one per line. Blank lines and lines starting
// with '#' are skipped, unknown commands are logged and skipped. Events is closed at EOF
// or on the first read error.
type LineEventSource struct {
	ch   chan primitives.Event
	stop chan struct{}
	done chan struct{}
	log  zerolog.Logger

	once sync.Once
	mu   sync.Mutex
	err  error
}

// NewLineEventSource starts reading r in the background.
func NewLineEventSource(r io.Reader, log zerolog.Logger) *LineEventSource {
	s := &LineEventSource{
		ch:   make(chan primitives.Event),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		log:  log.With().Str("module", "line-source").Logger(),
	}
	go s.run(r)
	return s
}

func (s *LineEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Done is closed once reading has ended.
func (s *LineEventSource) Done() <-chan struct{} {
	return s.done
}

// Err returns the read error that ended the source, if any. io.EOF is not an error.
func (s *LineEventSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops delivering events. A reader blocked in Read is not interrupted.
func (s *LineEventSource) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *LineEventSource) run(r io.Reader) {
	defer close(s.done)
	defer close(s.ch)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		evt, err := ParseCommand(text)
		if err != nil {
			s.log.Warn().Err(err).Int("line", line).Msg("skipping command")
			continue
		}

		select {
		case s.ch <- evt:
		case <-s.stop:
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.mu.Lock()
		s.err = errors.Wrap(err, "read commands")
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("command input failed")
	}
}
