package ipc

import (
	"fmt"
	"net"
	"time"

	"github.com/bnema/waytile/internal/registry"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client queries a running waytile instance
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the socket at socketPath
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientWithTimeout creates a client with a custom timeout
func NewClientWithTimeout(socketPath string, timeout time.Duration) *Client {
	c := NewClient(socketPath)
	c.timeout = timeout
	return c
}

// Status asks the running instance for its status
func (c *Client) Status() (*registry.Status, error) {
	msg, err := NewStatusMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to create status message: %w", err)
	}

	response, err := c.sendMessage(msg)
	if err != nil {
		return nil, err
	}

	switch MessageType(response) {
	case TypeStatusResponse:
		return GetStatusResponse(response)
	case TypeError:
		errText, _ := GetErrorResponse(response)
		return nil, fmt.Errorf("server error: %s", errText)
	default:
		return nil, fmt.Errorf("unexpected response type: %s", MessageType(response))
	}
}

func (c *Client) sendMessage(msg *structpb.Struct) (*structpb.Struct, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to waytile at %s (is it running?): %w", c.socketPath, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	if err := writeMessage(conn, msg); err != nil {
		return nil, err
	}
	return readMessage(conn)
}
