package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/earth2-mcp/gateway/codec"
	"github.com/earth2-mcp/gateway/dispatch"
)

// maxLineBytes caps a single envelope line, matching the HTTP body limit.
const maxLineBytes = 1 << 20

// Serve reads line-delimited JSON-RPC envelopes from in and writes one
// response line per request to out. Notifications produce no output line.
// Requests are handled sequentially, so responses come back in request
// order. Serve returns when in is exhausted, ctx ends, or out fails.
func Serve(ctx context.Context, d *dispatch.Dispatcher, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		req, errResp := codec.DecodeRequest(line)
		if errResp != nil {
			if err := encoder.Encode(errResp); err != nil {
				return err
			}
			continue
		}

		resp := d.Dispatch(ctx, req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("stdio scanner error: %v", err)
		return err
	}
	return nil
}
