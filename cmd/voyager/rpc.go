package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/entrhq/voyager/internal/obslog"
	"github.com/entrhq/voyager/pkg/tools"
)

// request is one line of stdin: a tool call by name with its JSON args.
// id is echoed back verbatim so a caller can match each response to its
// request; serveStdio handles one request at a time, so responses come back
// in request order.
type request struct {
	ID   interface{}            `json:"id"`
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

type response struct {
	ID     interface{} `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Message string `json:"message"`
}

// serveStdio reads newline-delimited JSON requests from stdin and writes one
// JSON response per line to stdout, dispatching each through registry. A
// malformed line gets an error response with a nil id rather than killing
// the loop, so one bad line doesn't take down the whole session.
func serveStdio(ctx context.Context, registry *tools.Registry, log *obslog.Logger) error {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !in.Scan() {
			if err := in.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read request: %w", err)
			}
			return nil
		}

		line := in.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := handleLine(ctx, registry, log, line)
		if err := writeResponse(out, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func handleLine(ctx context.Context, registry *tools.Registry, log *obslog.Logger, line []byte) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return response{Error: &rpcError{Message: fmt.Sprintf("invalid request: %v", err)}}
	}

	if req.Tool == "" {
		return response{ID: req.ID, Error: &rpcError{Message: "request missing \"tool\""}}
	}

	result, err := registry.Dispatch(ctx, req.Tool, req.Args)
	if err != nil {
		if log != nil {
			log.Warnf("tool %s failed: %v", req.Tool, err)
		}
		return response{ID: req.ID, Error: &rpcError{Message: err.Error()}}
	}

	return response{ID: req.ID, Result: result}
}

func writeResponse(out *bufio.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	if err := out.WriteByte('\n'); err != nil {
		return err
	}
	return out.Flush()
}
