// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import (
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/ipc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"

	"github.com/nrao/matrix"
	"github.com/nrao/matrix/frame"
	"github.com/nrao/matrix/keystore"
	"github.com/nrao/matrix/semfifo"
	"github.com/nrao/matrix/transport"
)

// urlsKey and pubURLsKey are the document keys the server deposits its
// final bound URNs under, before it begins serving requests.
const (
	urlsKey    = "Keymaster.URLS"
	pubURLsKey = "KeymasterServer.PUBURLS"
)

// heartbeatInterval is how often the server publishes a wall-clock
// heartbeat under [heartbeatKey].
const heartbeatInterval = time.Second

// pubQueueCapacity bounds the snapshot queue handed from the state thread
// to the publish thread: the publisher goroutine reads snapshots off this
// bounded queue, so it never needs to hold a lock on the document.
const pubQueueCapacity = 1024

// Server is the Keymaster server: a REQ/REP control socket backed by a
// single state goroutine that is the only mutator of the document, and a
// PUB publish socket backed by a separate goroutine that drains a bounded
// queue of cloned subtree snapshots.
//
// The zero value is not usable; construct one with [NewServer].
type Server struct {
	cfg *matrix.Config

	mu   sync.Mutex
	root keystore.Node

	repSock mangos.Socket
	pubSock mangos.Socket

	controlURNs []string
	pubURNs     []string

	pubQueue *semfifo.FIFO[pubEvent]

	wg   sync.WaitGroup
	quit chan struct{}
}

type pubEvent struct {
	key  string
	node keystore.Node
}

// NewServer returns a [*Server] over the given initial document. Call
// [*Server.Bind] before [*Server.Serve].
func NewServer(cfg *matrix.Config, doc keystore.Node) *Server {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}
	return &Server{
		cfg:      cfg,
		root:     doc,
		pubQueue: semfifo.New[pubEvent](pubQueueCapacity),
		quit:     make(chan struct{}),
	}
}

// Bind creates and binds the control (REP) and publish (PUB) sockets.
// controlURNs and pubURNs may be partial; the concrete, completed
// URNs are stored back into the document under [urlsKey] and [pubURLsKey]
// before Bind returns, so a client that reads the control URN from the
// document can also discover the publisher URN.
func (s *Server) Bind(controlURNs, pubURNs []string) error {
	repSock, err := rep.NewSocket()
	if err != nil {
		return fmt.Errorf("keymaster: new rep socket: %w", err)
	}
	boundControl, err := listenAll(repSock, controlURNs)
	if err != nil {
		_ = repSock.Close()
		return err
	}

	pubSock, err := pub.NewSocket()
	if err != nil {
		_ = repSock.Close()
		return fmt.Errorf("keymaster: new pub socket: %w", err)
	}
	boundPub, err := listenAll(pubSock, pubURNs)
	if err != nil {
		_ = repSock.Close()
		_ = pubSock.Close()
		return err
	}

	s.mu.Lock()
	s.repSock, s.pubSock = repSock, pubSock
	s.controlURNs, s.pubURNs = boundControl, boundPub
	s.root, _ = putLocked(s.root, urlsKey, keystore.Sequence(scalarSeq(boundControl)...))
	s.root, _ = putLocked(s.root, pubURLsKey, keystore.Sequence(scalarSeq(boundPub)...))
	s.mu.Unlock()

	s.cfg.Logger.Info("keymaster server bound", "control", boundControl, "publish", boundPub)
	return nil
}

// ControlURNs returns the bound control-socket URNs.
func (s *Server) ControlURNs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.controlURNs...)
}

// PublishURNs returns the bound publish-socket URNs.
func (s *Server) PublishURNs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pubURNs...)
}

func listenAll(sock mangos.Socket, urns []string) ([]string, error) {
	bound := make([]string, 0, len(urns))
	for _, raw := range urns {
		u, err := transport.ParseURN(raw)
		if err != nil {
			return nil, err
		}
		completed, err := transport.CompleteForBind(u)
		if err != nil {
			return nil, err
		}
		if err := sock.Listen(completed.String()); err != nil {
			return nil, fmt.Errorf("keymaster: listen %s: %w", completed, err)
		}
		bound = append(bound, completed.String())
	}
	return bound, nil
}

func scalarSeq(values []string) []keystore.Node {
	out := make([]keystore.Node, len(values))
	for i, v := range values {
		out[i] = keystore.Scalar(v)
	}
	return out
}

func putLocked(root keystore.Node, key string, value keystore.Node) (keystore.Node, keystore.Result) {
	return keystore.Put(root, key, value, true)
}

// Serve launches the control, publish, and heartbeat goroutines and
// blocks until [*Server.Terminate] is called.
func (s *Server) Serve() {
	s.wg.Add(3)
	go s.controlLoop()
	go s.publishLoop()
	go s.heartbeatLoop()
	s.wg.Wait()
}

// Terminate stops the server: it closes both sockets (unblocking any
// in-flight Recv) and releases the publish queue (unblocking the publish
// goroutine). It returns without waiting for the goroutines; [*Server.Serve]
// returns once all three have exited. This is the sanctioned way to shut a
// Server down.
func (s *Server) Terminate() {
	select {
	case <-s.quit:
		return
	default:
		close(s.quit)
	}
	_ = s.repSock.Close()
	_ = s.pubSock.Close()
	s.pubQueue.Release()
}

// controlLoop is the state thread: the only goroutine that ever mutates
// s.root. It serves one request per Recv, per the REQ/REP contract.
func (s *Server) controlLoop() {
	defer s.wg.Done()
	for {
		msg, err := s.repSock.Recv()
		if err != nil {
			return
		}
		reply := s.handle(msg)
		if err := s.repSock.Send(reply); err != nil {
			s.cfg.Logger.Error("keymaster: reply send failed", "error", s.cfg.ErrClassifier.Classify(err))
		}
	}
}

func (s *Server) handle(msg []byte) []byte {
	frames, err := frame.Split(msg)
	if err != nil || len(frames) == 0 {
		return s.encodeResult(badRequest("malformed request"))
	}
	verb := string(frames[0])
	args := frames[1:]
	switch verb {
	case verbPING:
		return s.encodeResult(keystore.Result{OK: true, Node: keystore.Scalar(pingToken)})
	case verbGET:
		return s.encodeResult(s.doGet(args))
	case verbPUT:
		return s.encodeResult(s.doPut(args))
	case verbDEL:
		return s.encodeResult(s.doDel(args))
	default:
		return s.encodeResult(badRequest(fmt.Sprintf("unknown verb %q", verb)))
	}
}

func (s *Server) encodeResult(res keystore.Result) []byte {
	doc, err := keystore.Marshal(resultToNode(res))
	if err != nil {
		s.cfg.Logger.Error("keymaster: encoding result", "error", err)
		return nil
	}
	return doc
}

func (s *Server) doGet(args [][]byte) keystore.Result {
	if len(args) != 1 {
		return badRequest("GET requires exactly one argument")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return keystore.Get(s.root, string(args[0]))
}

func (s *Server) doPut(args [][]byte) keystore.Result {
	if len(args) < 2 || len(args) > 3 {
		return badRequest("PUT requires keychain and value, with an optional create flag")
	}
	keychain := string(args[0])
	value, err := keystore.Unmarshal(args[1])
	if err != nil {
		return badRequest(fmt.Sprintf("decoding value: %v", err))
	}
	create := len(args) == 3 && string(args[2]) == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	newRoot, res := keystore.Put(s.root, keychain, value, create)
	if !res.OK {
		return res
	}
	s.root = newRoot
	s.enqueueAncestors(keychain)
	return res
}

func (s *Server) doDel(args [][]byte) keystore.Result {
	if len(args) != 1 {
		return badRequest("DEL requires exactly one argument")
	}
	keychain := string(args[0])

	s.mu.Lock()
	defer s.mu.Unlock()
	newRoot, res := keystore.Delete(s.root, keychain)
	if !res.OK {
		return res
	}
	s.root = newRoot
	s.enqueueAncestors(keychain)
	return res
}

// enqueueAncestors pushes one [pubEvent] per ancestor of keychain
// (including keychain itself, and including the root), reading each
// ancestor's post-mutation subtree from s.root. The caller must hold s.mu.
func (s *Server) enqueueAncestors(keychain string) {
	kc, err := keystore.ParseKeychain(keychain)
	if err != nil {
		return
	}
	for _, ancestor := range kc.Ancestors() {
		key := ancestor.String()
		res := keystore.Get(s.root, key)
		node := res.Node
		if !res.OK {
			node = keystore.Undefined()
		}
		if !s.pubQueue.TryPut(pubEvent{key: key, node: node}) {
			s.cfg.Logger.Warn("keymaster: publish queue full, dropping event", "key", key)
		}
	}
}

// publishLoop is the publish thread: it holds no lock on the document,
// only ever touching the cloned snapshots handed to it via s.pubQueue.
func (s *Server) publishLoop() {
	defer s.wg.Done()
	for {
		ev, ok := s.pubQueue.Get()
		if !ok {
			return
		}
		payload, err := keystore.Marshal(ev.node)
		if err != nil {
			s.cfg.Logger.Error("keymaster: encoding publish event", "key", ev.key, "error", err)
			continue
		}
		if err := s.pubSock.Send(encodePub(ev.key, payload)); err != nil {
			return
		}
		s.cfg.Logger.Debug("keymaster: published", "key", ev.key)
	}
}

func (s *Server) heartbeatLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			now := s.cfg.TimeNow()
			s.pubQueue.TryPut(pubEvent{key: heartbeatKey, node: keystore.Scalar(now.UTC().Format(time.RFC3339Nano))})
		}
	}
}
