// Package server implements the chat relay: a single-threaded event loop
// that multiplexes readiness across every connection, drives the nickname
// registration state machine, and fans chat lines out to all other clients.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// peer is an accepted connection the loop is watching. Until registration
// succeeds the peer is anonymous and has no Registry entry; the peer itself
// owns only the line reassembly buffer for its descriptor.
type peer struct {
	fd   int
	line *lineBuffer
}

// Relay owns the listening socket and every accepted connection. All state
// is mutated from the single Run goroutine; the only cross-goroutine entry
// point is Stop, which wakes the loop through a pipe.
type Relay struct {
	cfg *Config
	log *slog.Logger

	mux      Multiplexer
	registry *Registry
	peers    map[int]*peer

	listenFD int
	port     int
	wakeR    int
	wakeW    int

	readBuf []byte

	stopOnce sync.Once
	done     chan struct{}
}

// NewRelay creates the listening endpoint and the event loop state. Any
// failure here is fatal to startup: there is no retry for socket creation,
// binding, or listening.
func NewRelay(cfg *Config, log *slog.Logger) (*Relay, error) {
	ip := net.ParseIP(cfg.Host).To4()
	if ip == nil {
		return nil, fmt.Errorf("relay: host %q is not an IPv4 address", cfg.Host)
	}

	listenFD, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("relay: socket failed: %w", err)
	}
	if err := unix.SetsockoptInt(listenFD, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(listenFD)
		return nil, fmt.Errorf("relay: setsockopt failed: %w", err)
	}

	sa := &unix.SockaddrInet4{Port: cfg.Port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(listenFD, sa); err != nil {
		unix.Close(listenFD)
		return nil, fmt.Errorf("relay: bind %s failed: %w", cfg.Addr(), err)
	}
	if err := unix.Listen(listenFD, cfg.Backlog); err != nil {
		unix.Close(listenFD)
		return nil, fmt.Errorf("relay: listen failed: %w", err)
	}

	// Resolve the actual port so tests can bind port 0.
	port := cfg.Port
	if bound, err := unix.Getsockname(listenFD); err == nil {
		if sa4, ok := bound.(*unix.SockaddrInet4); ok {
			port = sa4.Port
		}
	}

	// Self-wake pipe: Stop writes one byte, the loop sees readiness and
	// tears everything down on its own thread.
	var pipeFDs [2]int
	if err := unix.Pipe(pipeFDs[:]); err != nil {
		unix.Close(listenFD)
		return nil, fmt.Errorf("relay: pipe failed: %w", err)
	}

	mux := newSelectMux()
	mux.Add(listenFD)
	mux.Add(pipeFDs[0])

	r := &Relay{
		cfg:      cfg,
		log:      log,
		mux:      mux,
		registry: NewRegistry(),
		peers:    make(map[int]*peer),
		listenFD: listenFD,
		port:     port,
		wakeR:    pipeFDs[0],
		wakeW:    pipeFDs[1],
		readBuf:  make([]byte, cfg.ReadBufferSize),
		done:     make(chan struct{}),
	}
	r.log.Info("relay listening", "addr", r.Addr())
	return r, nil
}

// Addr returns the address the relay is listening on, with the port actually
// bound (meaningful when the configured port was 0).
func (r *Relay) Addr() string {
	return net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.port))
}

// Run drives the event loop until Stop is called. Exactly one readiness
// event is processed at a time, to completion; no other goroutine touches
// the registry or the watched set, so no locking is needed.
func (r *Relay) Run() {
	defer close(r.done)

	for {
		ready, err := r.mux.Ready()
		if err != nil {
			// Degraded availability beats crashing: log and keep serving.
			r.log.Error("readiness wait failed", "error", err)
			continue
		}

		for _, fd := range ready {
			switch fd {
			case r.wakeR:
				r.shutdown()
				return
			case r.listenFD:
				r.accept()
			default:
				r.readFrom(fd)
			}
		}
	}
}

// Stop wakes the event loop, closes every connection, and waits for Run to
// return. Safe to call more than once.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		if _, err := unix.Write(r.wakeW, []byte{0}); err != nil {
			r.log.Error("failed to wake relay for shutdown", "error", err)
		}
	})
	<-r.done
}

// shutdown closes all descriptors. Runs on the loop goroutine only.
func (r *Relay) shutdown() {
	for fd := range r.peers {
		unix.Close(fd)
	}
	unix.Close(r.listenFD)
	unix.Close(r.wakeR)
	unix.Close(r.wakeW)
	r.log.Info("relay stopped", "clients", r.registry.Len())
}

// accept takes one inbound connection, starts watching it, and sends the
// nickname prompt. The registry entry is created only on successful
// registration; until then the connection exists only in the watched set.
func (r *Relay) accept() {
	fd, sa, err := unix.Accept(r.listenFD)
	if err != nil {
		// Scoped to this accept attempt; other connections are unaffected.
		r.log.Error("accept failed", "error", err)
		return
	}

	r.peers[fd] = &peer{fd: fd, line: newLineBuffer(r.cfg.MaxLineLength)}
	r.mux.Add(fd)
	r.log.Info("client connected", "fd", fd, "addr", remoteAddr(sa))

	if err := r.send(fd, nicknamePrompt); err != nil {
		r.log.Error("failed to send nickname prompt", "fd", fd, "error", err)
		r.disconnect(fd)
	}
}

// readFrom handles readiness on one client connection: a bounded read, line
// extraction, and dispatch of each complete line through the protocol state
// machine. Zero bytes or a read error both mean the peer is gone.
func (r *Relay) readFrom(fd int) {
	p, ok := r.peers[fd]
	if !ok {
		// Already torn down earlier in this ready batch.
		return
	}

	n, err := unix.Read(fd, r.readBuf)
	if err != nil {
		r.log.Info("read error, dropping client", "fd", fd, "error", err)
		r.disconnect(fd)
		return
	}
	if n == 0 {
		r.disconnect(fd)
		return
	}

	for _, line := range p.line.push(r.readBuf[:n]) {
		if _, registered := r.registry.Find(fd); !registered {
			r.register(fd, line)
		} else {
			r.relayChat(fd, line)
		}
		if _, alive := r.peers[fd]; !alive {
			return
		}
	}
}

// register treats line as a nickname claim. On collision the client is
// invited to retry and nothing else changes; otherwise the client becomes
// named, receives the online-user listing, and everyone else gets a join
// notice.
func (r *Relay) register(fd int, nickname string) {
	if err := r.registry.Register(fd, nickname); err != nil {
		if err := r.send(fd, nameTakenPrompt); err != nil {
			r.log.Error("failed to send rejection", "fd", fd, "error", err)
		}
		return
	}

	r.log.Info("client registered", "fd", fd, "nickname", nickname)

	var others []string
	for _, c := range r.registry.All() {
		if c.Conn != fd {
			others = append(others, c.Nickname)
		}
	}
	if err := r.send(fd, formatWelcome(others)); err != nil {
		r.log.Error("failed to send welcome", "fd", fd, "error", err)
	}

	r.broadcast(fd, formatJoin(nickname))
}

// relayChat fans one chat line out to every other named client.
func (r *Relay) relayChat(fd int, message string) {
	client, ok := r.registry.Find(fd)
	if !ok {
		return
	}
	r.log.Info("message", "nickname", client.Nickname, "text", message)
	r.broadcast(fd, formatChat(client.Nickname, message))
}

// broadcast delivers text to every registered client except the sender, in
// registry order. A failed send is logged and never removes the recipient;
// removal happens only through its own disconnect path.
func (r *Relay) broadcast(sender int, text string) {
	for _, c := range r.registry.All() {
		if c.Conn == sender {
			continue
		}
		if err := r.send(c.Conn, text); err != nil {
			r.log.Error("broadcast send failed", "fd", c.Conn, "nickname", c.Nickname, "error", err)
		}
	}
}

// disconnect tears one connection down: leave notice if the client was
// named, then shutdown, close, and removal from both the watched set and the
// registry in the same step so they never diverge. Calling it again for an
// already-absent connection is a no-op.
func (r *Relay) disconnect(fd int) {
	if _, ok := r.peers[fd]; !ok {
		return
	}

	if client, ok := r.registry.Find(fd); ok {
		r.broadcast(fd, formatLeave(client.Nickname))
		r.log.Info("client disconnected", "fd", fd, "nickname", client.Nickname)
	} else {
		r.log.Info("client disconnected before registering", "fd", fd)
	}

	unix.Shutdown(fd, unix.SHUT_RDWR)
	unix.Close(fd)
	r.mux.Remove(fd)
	r.registry.Remove(fd)
	delete(r.peers, fd)
}

// send writes the whole message to one descriptor.
func (r *Relay) send(fd int, msg string) error {
	b := []byte(msg)
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func remoteAddr(sa unix.Sockaddr) string {
	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		return net.JoinHostPort(net.IP(sa4.Addr[:]).String(), strconv.Itoa(sa4.Port))
	}
	return "unknown"
}
