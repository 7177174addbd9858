// Package remote submits canvases to a running contractgrid server over
// socket.io.
package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/server"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds a submission when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a submission.
type Options struct {
	// URL of the server, e.g. http://localhost:8090. A path, if any, is
	// used as the socket.io path; it defaults to /socket.io/.
	URL                string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type reply struct {
	resp *server.CompileResponse
	err  error
}

// Submit sends req to the server and waits for the matching reply.
func Submit(ctx context.Context, opts Options, req *server.CompileRequest) (*server.CompileResponse, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL)
	logger.Debug("Submitting canvas.")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q must include a scheme and host", opts.URL)
	}
	payload, err := server.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		clientOpts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		clientOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	clientOpts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, clientOpts)
	io := manager.Socket("/", clientOpts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan reply, 1)
	send := func(r reply) {
		select {
		case done <- r:
		default:
		}
	}

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected, emitting compile request.", "sid", io.Id())
		io.Emit(server.EventCompile, payload)
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("connection failed: %w", e)
			}
		}
		send(reply{err: err})
	})

	io.On(types.EventName(server.EventCompiled), func(data ...any) {
		if len(data) == 0 {
			send(reply{err: errors.New("empty compile response")})
			return
		}
		var resp server.CompileResponse
		if err := server.Decode(data[0], &resp); err != nil {
			send(reply{err: err})
			return
		}
		send(reply{resp: &resp})
	})

	io.On(types.EventName(server.EventCompileError), func(data ...any) {
		var resp server.ErrorResponse
		if len(data) > 0 {
			_ = server.Decode(data[0], &resp)
		}
		send(reply{err: fmt.Errorf("server could not compile the canvas: %s", resp.Error)})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for '%s'", server.EventCompiled)
		}
		return nil, errors.New("timed out while waiting for initial connection")
	case r := <-done:
		return r.resp, r.err
	}
}
