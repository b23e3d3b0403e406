package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/earth2-mcp/gateway/codec"
	"github.com/earth2-mcp/gateway/dispatch"
)

// maxBodyBytes caps a request body on /rpc; a single envelope never
// legitimately approaches this.
const maxBodyBytes = 1 << 20

// RPC serves POST /rpc: one envelope in, one envelope out. Failures still
// travel as JSON-RPC error envelopes on HTTP 200; notifications are
// acknowledged with 204 and no body.
func RPC(d *dispatch.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		req, errResp := codec.ParseJSONRPCRequest(r)
		if errResp != nil {
			codec.WriteResponse(w, errResp)
			return
		}
		log.WithField("method", req.Method).Debug("rpc request")

		resp := d.Dispatch(r.Context(), req)
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		codec.WriteResponse(w, resp)
	}
}

// Healthz reports gateway liveness. Downstream readiness is deliberately not
// part of liveness; it is exposed as the health resource instead.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
