// Package client is the synchronous driver for talking to a vectord
// server, mirroring original_source/src/luxdb/client.go's Client (the
// asyncio client collapses onto one blocking connection here; Pool stands
// in for running several of them concurrently).
package client

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net"
	"sync"

	"github.com/sacovo/vectord/pkg/codec"
	"github.com/sacovo/vectord/pkg/command"
	"github.com/sacovo/vectord/pkg/index"
)

// Client is one authenticated TCP connection to a vectord server. All
// methods are safe for concurrent use; each Do call is serialized behind
// an internal mutex since the wire protocol is strictly request/response.
type Client struct {
	conn net.Conn
	c    *codec.Conn
	mu   sync.Mutex
}

// Dial connects to addr and performs the handshake, deriving the shared
// token from secret using the compiled-in defaults.
func Dial(addr, secret string) (*Client, error) {
	return DialWithConfig(addr, secret, codec.TokenConfig{})
}

// DialWithConfig is Dial with an explicit key-derivation configuration,
// for talking to a server whose salt, iteration count, or token TTL
// differ from the compiled-in defaults.
func DialWithConfig(addr, secret string, cfg codec.TokenConfig) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}

	token, err := codec.NewToken(secret, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}

	cl := &Client{conn: conn, c: codec.NewConn(conn, token)}
	if err := cl.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return cl, nil
}

// handshake sends a random payload wrapped in a ConnectCommand and
// verifies the server echoes it back, comparing the echo in constant
// time. A server with a different secret, or a tampered response, already
// fails in Receive (close sentinel or InvalidToken) before the comparison.
func (cl *Client) handshake() error {
	payload := make([]byte, 32)
	if _, err := rand.Read(payload); err != nil {
		return fmt.Errorf("client: generate handshake payload: %w", err)
	}

	if err := cl.c.Send(&command.ConnectCommand{Payload: payload}); err != nil {
		return err
	}
	v, err := cl.c.Receive()
	if err != nil {
		return fmt.Errorf("client: handshake failed: %w", err)
	}

	result, ok := v.(command.Result)
	if !ok {
		return fmt.Errorf("client: handshake: unexpected response type %T", v)
	}
	echoed, _ := result.Data.([]byte)
	if subtle.ConstantTimeCompare(payload, echoed) != 1 {
		return fmt.Errorf("client: handshake failed: secret mismatch")
	}
	return nil
}

// Do sends cmd and returns the server's result value, or an error if the
// result was a FAILED state.
func (cl *Client) Do(cmd command.Command) (any, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if err := cl.c.Send(cmd); err != nil {
		return nil, err
	}
	v, err := cl.c.Receive()
	if err != nil {
		return nil, err
	}

	result, ok := v.(command.Result)
	if !ok {
		return nil, fmt.Errorf("client: unexpected response type %T", v)
	}
	if result.State == command.Failed {
		if failure, ok := result.Data.(error); ok {
			return nil, failure
		}
		return nil, fmt.Errorf("client: command failed: %v", result.Data)
	}
	return result.Data, nil
}

// Close sends the graceful-close sentinel and closes the underlying
// connection.
func (cl *Client) Close() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.c.Close()
	return cl.conn.Close()
}

// IndexExists checks whether an index is registered.
func (cl *Client) IndexExists(name string) (bool, error) {
	v, err := cl.Do(&command.IndexExistsCommand{Name: name})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// CreateIndex registers a new, uninitialized index.
func (cl *Client) CreateIndex(name, space string, dim int) (bool, error) {
	v, err := cl.Do(&command.CreateIndexCommand{Name: name, Space: space, Dim: dim})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// InitIndex allocates an index's graph storage.
func (cl *Client) InitIndex(name string, maxElements, efConstruction, m int) error {
	_, err := cl.Do(&command.InitIndexCommand{Name: name, MaxElements: maxElements, EfConstruction: efConstruction, M: m})
	return err
}

// DeleteIndex removes an index entirely.
func (cl *Client) DeleteIndex(name string) error {
	_, err := cl.Do(&command.DeleteIndexCommand{Name: name})
	return err
}

// ImportIndex registers a pre-built index wrapper under name.
func (cl *Client) ImportIndex(name string, meta index.Meta, data []byte) error {
	_, err := cl.Do(&command.ImportIndexCommand{Name: name, Meta: meta, Data: data})
	return err
}

// AddItems adds rows to an index under the given labels.
func (cl *Client) AddItems(name string, data [][]float32, ids []int) error {
	_, err := cl.Do(&command.AddItemsCommand{Name: name, Data: data, Ids: ids})
	return err
}

// SetEF sets an index's query-time search breadth.
func (cl *Client) SetEF(name string, newEf int) error {
	_, err := cl.Do(&command.SetEFCommand{Name: name, NewEF: newEf})
	return err
}

// GetEF reads an index's query-time search breadth.
func (cl *Client) GetEF(name string) (int, error) {
	v, err := cl.Do(&command.GetEFCommand{Name: name})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// GetEFConstruction reads an index's construction-time candidate breadth.
func (cl *Client) GetEFConstruction(name string) (int, error) {
	v, err := cl.Do(&command.GetEFConstructionCommand{Name: name})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// QueryIndex finds the k nearest neighbors for each input vector.
func (cl *Client) QueryIndex(name string, vectors [][]float32, k int) ([][]int, [][]float32, error) {
	v, err := cl.Do(&command.QueryIndexCommand{Name: name, Vectors: vectors, K: k})
	if err != nil {
		return nil, nil, err
	}
	qr := v.(command.QueryResult)
	return qr.Labels, qr.Distances, nil
}

// DeleteItem marks a label as deleted.
func (cl *Client) DeleteItem(name string, label int) error {
	_, err := cl.Do(&command.DeleteItemCommand{Name: name, Label: label})
	return err
}

// ResizeIndex changes an index's capacity.
func (cl *Client) ResizeIndex(name string, newSize int) error {
	_, err := cl.Do(&command.ResizeIndexCommand{Name: name, NewSize: newSize})
	return err
}

// MaxElements reads an index's configured capacity.
func (cl *Client) MaxElements(name string) (int, error) {
	v, err := cl.Do(&command.MaxElementsCommand{Name: name})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Count reads the number of rows stored in an index, logically deleted
// ones included.
func (cl *Client) Count(name string) (int, error) {
	v, err := cl.Do(&command.CountCommand{Name: name})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Info reads an index's full metadata record.
func (cl *Client) Info(name string) (index.Info, error) {
	v, err := cl.Do(&command.InfoCommand{Name: name})
	if err != nil {
		return index.Info{}, err
	}
	return v.(index.Info), nil
}

// GetIndexes lists every registered index name.
func (cl *Client) GetIndexes() ([]string, error) {
	v, err := cl.Do(&command.GetIndexesCommand{})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetItems reads the row vectors for the given labels.
func (cl *Client) GetItems(name string, ids []int) ([][]float32, error) {
	v, err := cl.Do(&command.GetItemsCommand{Name: name, Ids: ids})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}

// GetIds lists every live label in an index.
func (cl *Client) GetIds(name string) ([]int, error) {
	v, err := cl.Do(&command.GetIdsCommand{Name: name})
	if err != nil {
		return nil, err
	}
	return v.([]int), nil
}
