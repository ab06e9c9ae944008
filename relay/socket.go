package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-zeromq/zmq4"
)

// ErrClosed is returned by operations on a closed memory socket.
var ErrClosed = errors.New("socket closed")

// Socket exchanges multipart messages.
type Socket interface {
	Send(frames [][]byte) error
	Recv() ([][]byte, error)
	Close() error
}

type zmqSocket struct {
	sck  zmq4.Socket
	once sync.Once
	err  error
}

func (z *zmqSocket) Send(frames [][]byte) error {
	msg := zmq4.NewMsgFrom(frames...)
	if len(frames) > 1 {
		return z.sck.SendMulti(msg)
	}
	return z.sck.Send(msg)
}

func (z *zmqSocket) Recv() ([][]byte, error) {
	msg, err := z.sck.Recv()
	if err != nil {
		return nil, err
	}
	return msg.Frames, nil
}

func (z *zmqSocket) Close() error {
	z.once.Do(func() { z.err = z.sck.Close() })
	return z.err
}

// endpoints use tcp://*:port for all addresses
func listenEndpoint(addr string) string {
	return strings.Replace(addr, "://*:", "://0.0.0.0:", 1)
}

// NewRouterSocket binds the collector's rendezvous. Every received message starts
// with the sender's routing identity.
func NewRouterSocket(ctx context.Context, bindAddr string) (Socket, error) {
	sck := zmq4.NewRouter(ctx)
	if err := sck.Listen(listenEndpoint(bindAddr)); err != nil {
		sck.Close()
		return nil, fmt.Errorf("could not bind %s: %w", bindAddr, err)
	}
	return &zmqSocket{sck: sck}, nil
}

// NewRequestSocket connects a producer. Each Send must be followed by a Recv.
func NewRequestSocket(ctx context.Context, connectAddr string, identity string) (Socket, error) {
	var opts []zmq4.Option
	if identity != "" {
		opts = append(opts, zmq4.WithID(zmq4.SocketIdentity(identity)))
	}
	sck := zmq4.NewReq(ctx, opts...)
	if err := sck.Dial(connectAddr); err != nil {
		sck.Close()
		return nil, fmt.Errorf("could not connect %s: %w", connectAddr, err)
	}
	return &zmqSocket{sck: sck}, nil
}

// MemoryRouter is an in process router with the same framing as a router socket.
type MemoryRouter struct {
	inbox chan [][]byte
	done  chan struct{}
	once  sync.Once

	mu    sync.Mutex
	peers map[string]*MemoryRequester
}

func NewMemoryRouter() *MemoryRouter {
	return &MemoryRouter{
		inbox: make(chan [][]byte, 16),
		done:  make(chan struct{}),
		peers: map[string]*MemoryRequester{},
	}
}

// Connect attaches a requester announcing identity.
func (r *MemoryRouter) Connect(identity string) *MemoryRequester {
	req := &MemoryRequester{
		identity: []byte(identity),
		router:   r,
		replies:  make(chan [][]byte, 1),
		done:     make(chan struct{}),
	}
	r.mu.Lock()
	r.peers[identity] = req
	r.mu.Unlock()
	return req
}

func (r *MemoryRouter) Recv() ([][]byte, error) {
	select {
	case msg := <-r.inbox:
		return msg, nil
	case <-r.done:
		return nil, ErrClosed
	}
}

// Send routes on the first frame. Unroutable messages are dropped.
func (r *MemoryRouter) Send(frames [][]byte) error {
	if len(frames) == 0 {
		return errors.New("router message needs an identity frame")
	}
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	r.mu.Lock()
	peer := r.peers[string(frames[0])]
	r.mu.Unlock()
	if peer == nil {
		return nil
	}
	return peer.deliver(copyFrames(frames[1:]))
}

func (r *MemoryRouter) Close() error {
	r.once.Do(func() { close(r.done) })
	return nil
}

// MemoryRequester is the request side of a MemoryRouter.
type MemoryRequester struct {
	identity []byte
	router   *MemoryRouter
	replies  chan [][]byte
	done     chan struct{}
	once     sync.Once
}

func (q *MemoryRequester) Send(frames [][]byte) error {
	msg := append([][]byte{append([]byte{}, q.identity...), {}}, copyFrames(frames)...)
	select {
	case q.router.inbox <- msg:
		return nil
	case <-q.router.done:
		return ErrClosed
	case <-q.done:
		return ErrClosed
	}
}

// Recv returns the reply without its empty delimiter.
func (q *MemoryRequester) Recv() ([][]byte, error) {
	select {
	case msg := <-q.replies:
		if len(msg) > 0 && len(msg[0]) == 0 {
			msg = msg[1:]
		}
		return msg, nil
	case <-q.done:
		return nil, ErrClosed
	}
}

func (q *MemoryRequester) deliver(frames [][]byte) error {
	select {
	case q.replies <- frames:
		return nil
	case <-q.done:
		return ErrClosed
	default:
		// no request is outstanding
		return nil
	}
}

func (q *MemoryRequester) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

func copyFrames(frames [][]byte) [][]byte {
	out := make([][]byte, len(frames))
	for i, f := range frames {
		out[i] = append([]byte{}, f...)
	}
	return out
}
