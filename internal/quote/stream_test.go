package quote

import (
	"testing"
	"time"
)

func TestDispatchAppliesTickToBook(t *testing.T) {
	t.Parallel()

	book := NewBook()
	s := NewStream("ws://unused", book, testLogger())

	s.dispatch([]byte(`{"event_type":"tick","symbol":"BTC-15m-1","up_price":"0.45","down_price":"0.50"}`))

	up, down, ok := book.Last("BTC-15m-1", time.Minute)
	if !ok {
		t.Fatal("expected dispatch to record a tick in the book")
	}
	_ = up
	_ = down
}

func TestDispatchIgnoresMessageWithoutSymbol(t *testing.T) {
	t.Parallel()

	book := NewBook()
	s := NewStream("ws://unused", book, testLogger())

	s.dispatch([]byte(`{"event_type":"tick","up_price":"0.45","down_price":"0.50"}`))

	if _, _, ok := book.Last("", time.Minute); ok {
		t.Error("expected message without a symbol to be ignored")
	}
}

func TestDispatchIgnoresMalformedJSON(t *testing.T) {
	t.Parallel()

	book := NewBook()
	s := NewStream("ws://unused", book, testLogger())

	s.dispatch([]byte(`not json`))

	if len(book.entries) != 0 {
		t.Errorf("expected malformed message to leave the book empty, got %d entries", len(book.entries))
	}
}

func TestSubscribeFailsWithoutConnection(t *testing.T) {
	t.Parallel()

	s := NewStream("ws://unused", NewBook(), testLogger())
	if err := s.Subscribe([]string{"BTC-15m-1"}); err == nil {
		t.Error("expected Subscribe to fail before a connection is established")
	}

	s.subscribedMu.RLock()
	defer s.subscribedMu.RUnlock()
	if !s.subscribed["BTC-15m-1"] {
		t.Error("expected symbol to be tracked even though the write failed")
	}
}
