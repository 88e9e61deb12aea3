// Package integration contains end-to-end tests that exercise the relay
// over real TCP connections, covering the full connect, register, chat, and
// disconnect sequence as a client would experience it.
package integration

import (
	"net"
	"strings"
	"testing"

	"linechat/test/testhelpers"
)

// TestChatSessionLifecycle walks the whole protocol end to end: first user
// alone, collision and retry for the second, broadcast fan-out, and the
// leave notice after a disconnect.
func TestChatSessionLifecycle(t *testing.T) {
	relay := testhelpers.StartRelay(t)

	// Client A connects and claims "alice": the room is empty, so the
	// welcome is the distinguished alone message.
	alice := testhelpers.DialRelay(t, relay.Addr())
	welcome := testhelpers.JoinChat(t, alice, "alice")
	if !strings.Contains(welcome, "only user here") {
		t.Fatalf("First user welcome %q is not the alone message", welcome)
	}

	// Client B tries the taken name, gets a retryable rejection, and is
	// still anonymous: nothing was broadcast and it stays connected.
	bob := testhelpers.DialRelay(t, relay.Addr())
	testhelpers.ReadUntil(t, bob, "Enter nickname")
	testhelpers.SendLine(t, bob, "alice")
	testhelpers.ReadUntil(t, bob, "Nickname taken")

	// The retry succeeds: B's welcome lists alice, and A sees a join
	// notice for bob.
	testhelpers.SendLine(t, bob, "bob")
	welcome = testhelpers.ReadUntil(t, bob, "Users:")
	if !strings.Contains(welcome, "alice") {
		t.Fatalf("Second user welcome %q does not list alice", welcome)
	}
	aliceView := testhelpers.ReadUntil(t, alice, "joined the chat")
	if !strings.Contains(aliceView, "bob") {
		t.Fatalf("Join notice %q does not name bob", aliceView)
	}

	// B chats; A receives the formatted line, B gets no echo.
	testhelpers.SendLine(t, bob, "hello")
	aliceView = testhelpers.ReadUntil(t, alice, "bob: hello")
	if !strings.Contains(aliceView, "bob: hello") {
		t.Fatalf("alice did not receive the chat line: %q", aliceView)
	}

	// A disconnects; B receives exactly one leave notice naming alice.
	_ = alice.Close()
	bobView := testhelpers.ReadUntil(t, bob, "left the chat")
	if !strings.Contains(bobView, "alice left the chat") {
		t.Fatalf("Leave notice %q does not name alice", bobView)
	}
	if strings.Count(bobView, "left the chat") != 1 {
		t.Fatalf("Expected exactly one leave notice, got: %q", bobView)
	}

	// B's next message has no recipients but is still accepted without
	// error: the connection stays usable, which the next join proves.
	testhelpers.SendLine(t, bob, "anyone there?")

	carol := testhelpers.DialRelay(t, relay.Addr())
	welcome = testhelpers.JoinChat(t, carol, "carol")
	if !strings.Contains(welcome, "1 users online") {
		t.Fatalf("carol's welcome %q should count only bob", welcome)
	}
	bobView = testhelpers.ReadUntil(t, bob, "carol joined")
	if strings.Contains(bobView, "bob: anyone there?") {
		t.Fatalf("bob received his own recipient-less message: %q", bobView)
	}
}

// TestManyClientsFanOut verifies that one message reaches every other named
// client in a larger room.
func TestManyClientsFanOut(t *testing.T) {
	relay := testhelpers.StartRelay(t)

	nicknames := []string{"alice", "bob", "carol", "dave"}
	conns := make([]net.Conn, len(nicknames))
	for i, nick := range nicknames {
		conns[i] = testhelpers.DialRelay(t, relay.Addr())
		testhelpers.JoinChat(t, conns[i], nick)
		// Everyone already in the room sees the join notice; drain it so
		// later reads start clean.
		for j := 0; j < i; j++ {
			testhelpers.ReadUntil(t, conns[j], nick+" joined")
		}
	}

	testhelpers.SendLine(t, conns[0], "hello everyone")
	for i := 1; i < len(conns); i++ {
		got := testhelpers.ReadUntil(t, conns[i], "alice: hello everyone")
		if !strings.Contains(got, "alice: hello everyone") {
			t.Errorf("%s did not receive the broadcast: %q", nicknames[i], got)
		}
	}
}
