package server

import (
	"crypto/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sacovo/vectord/pkg/codec"
	"github.com/sacovo/vectord/pkg/command"
	"github.com/sacovo/vectord/pkg/index"
)

type fakeRegistry struct{}

func (fakeRegistry) IndexExists(name string) bool                             { return name == "widgets" }
func (fakeRegistry) CreateIndex(name, space string, dim int) (bool, error)    { return true, nil }
func (fakeRegistry) InitIndex(string, int, int, int) error                    { return nil }
func (fakeRegistry) DeleteIndex(string) error                                 { return nil }
func (fakeRegistry) ImportIndex(string, index.Meta, []byte) error             { return nil }
func (fakeRegistry) AddItems(string, [][]float32, []int) error                { return nil }
func (fakeRegistry) SetEF(string, int) error                                  { return nil }
func (fakeRegistry) GetEF(string) (int, error)                                { return 10, nil }
func (fakeRegistry) GetEFConstruction(string) (int, error)                    { return 200, nil }
func (fakeRegistry) QueryIndex(string, [][]float32, int) ([][]int, [][]float32, error) {
	return [][]int{{1}}, [][]float32{{0.5}}, nil
}
func (fakeRegistry) DeleteItem(string, int) error                { return nil }
func (fakeRegistry) ResizeIndex(string, int) error                { return nil }
func (fakeRegistry) MaxElements(string) (int, error)              { return 1000, nil }
func (fakeRegistry) Count(string) (int, error)                    { return 7, nil }
func (fakeRegistry) Info(string) (index.Info, error)              { return index.Info{Space: "l2", Dim: 3}, nil }
func (fakeRegistry) GetIndexes() []string                        { return []string{"widgets"} }
func (fakeRegistry) GetItems(string, []int) ([][]float32, error) { return nil, nil }
func (fakeRegistry) GetIds(string) ([]int, error)                { return nil, nil }

func startTestServer(t *testing.T) (*Server, *codec.Token) {
	t.Helper()
	tok, err := codec.NewToken("shared-secret", codec.TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	srv := New("127.0.0.1", 0, tok, fakeRegistry{})
	require.NoError(t, srv.Listen())

	go srv.Serve()
	t.Cleanup(srv.Shutdown)

	return srv, tok
}

func dialAndHandshake(t *testing.T, srv *Server, tok *codec.Token) *codec.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := codec.NewConn(conn, tok)
	payload := make([]byte, 32)
	_, err = rand.Read(payload)
	require.NoError(t, err)

	require.NoError(t, c.Send(&command.ConnectCommand{Payload: payload}))
	v, err := c.Receive()
	require.NoError(t, err)

	result, ok := v.(command.Result)
	require.True(t, ok)
	require.Equal(t, command.Succeeded, result.State)
	require.Equal(t, payload, result.Data)

	return c
}

func TestHandshakeEchoesPayload(t *testing.T) {
	srv, tok := startTestServer(t)
	dialAndHandshake(t, srv, tok)
}

func TestDispatchAfterHandshake(t *testing.T) {
	srv, tok := startTestServer(t)
	c := dialAndHandshake(t, srv, tok)

	require.NoError(t, c.Send(&command.CountCommand{Name: "widgets"}))
	v, err := c.Receive()
	require.NoError(t, err)

	result := v.(command.Result)
	require.Equal(t, command.Succeeded, result.State)
	require.Equal(t, 7, result.Data)
}

func TestWrongSecretIsRejectedOnHandshake(t *testing.T) {
	srv, _ := startTestServer(t)
	wrongTok, err := codec.NewToken("wrong-secret", codec.TokenConfig{Iterations: 1000})
	require.NoError(t, err)

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	c := codec.NewConn(conn, wrongTok)
	require.NoError(t, c.Send(&command.ConnectCommand{Payload: []byte("hello")}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = c.Receive()
	require.Error(t, err)
}

func TestQuitClosesConnectionGracefully(t *testing.T) {
	srv, tok := startTestServer(t)
	c := dialAndHandshake(t, srv, tok)

	require.NoError(t, c.Close())
}
