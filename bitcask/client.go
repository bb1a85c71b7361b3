package bitcask

import (
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/caskdb/internal"
	"github.com/0xRadioAc7iv/caskdb/internal/protocol"
)

// Client is a connection to a caskdb server. A Client is safe for concurrent
// use; commands are sent one at a time over the shared connection.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
}

func Connect(opts ...Option) (*Client, error) {
	cfg := internal.DefaultConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, timeout: cfg.Timeout}, nil
}

func (c *Client) PING() (string, error) {
	return c.sendCommand(protocol.CmdPing, "", "")
}

func (c *Client) GET(key string) (string, error) {
	return c.sendCommand(protocol.CmdGet, key, "")
}

func (c *Client) SET(key, value string) (string, error) {
	return c.sendCommand(protocol.CmdSet, key, value)
}

func (c *Client) DELETE(key string) (string, error) {
	return c.sendCommand(protocol.CmdDelete, key, "")
}

func (c *Client) COUNT() (string, error) {
	return c.sendCommand(protocol.CmdCount, "", "")
}

func (c *Client) EXISTS(key string) (string, error) {
	return c.sendCommand(protocol.CmdExists, key, "")
}

func (c *Client) LIST() (string, error) {
	return c.sendCommand(protocol.CmdList, "", "")
}

func (c *Client) HELP() (string, error) {
	return c.sendCommand(protocol.CmdHelp, "", "")
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute sends an arbitrary command, as typed into the CLI.
func (c *Client) Execute(cmd, key, value string) (string, error) {
	return c.sendCommand(cmd, key, value)
}

func (c *Client) sendCommand(cmd, key, value string) (string, error) {
	payload, err := protocol.EncodeCommand(cmd, key, value)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", err
		}
	}

	if _, err := c.conn.Write(payload); err != nil {
		return "", err
	}

	return protocol.DecodeResponse(c.conn)
}
