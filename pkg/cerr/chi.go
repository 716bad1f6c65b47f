package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sadreammm/Helply/pkg/clog"
)

type receiverKey struct{}

type receiver struct {
	set      bool
	status   int
	response any
	err      error
}

func receiverFrom(ctx context.Context) *receiver {
	rr, _ := ctx.Value(receiverKey{}).(*receiver)
	return rr
}

// SetJSONResponse queues response to be written as the 200 JSON body once
// the handler returns.
func SetJSONResponse(ctx context.Context, response any) {
	SetJSONResponseWithStatus(ctx, http.StatusOK, response)
}

func SetJSONResponseWithStatus(ctx context.Context, status int, response any) {
	if rr := receiverFrom(ctx); rr != nil {
		rr.set = true
		rr.status = status
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := receiverFrom(ctx); rr != nil {
		rr.set = true
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewJSONChiMiddleware renders whatever the handler queued with the Set
// functions. Handlers that write to the ResponseWriter themselves and queue
// nothing are left alone.
func NewJSONChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &receiver{}
			ctx := context.WithValue(r.Context(), receiverKey{}, rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			if !rr.set {
				return
			}
			if rr.err != nil {
				WriteJSONError(ctx, rw, rr.err)
				return
			}
			writeJSON(ctx, rw, rr.status, rr.response)
		})
	}
}

type httpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSONError writes err immediately, for callers outside the middleware
// such as the rate limiter.
func WriteJSONError(ctx context.Context, rw http.ResponseWriter, err error) {
	e := normalize(ctx, err)
	body, mErr := json.Marshal(httpError{Code: e.Code.String(), Message: e.Msg})
	if mErr != nil {
		body = []byte(`{"code":"internal","message":"server error"}`)
		clog.AddError(ctx, errors.Join(err, mErr))
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(e.Code.HTTPCode())
	if _, wErr := rw.Write(append(body, '\n')); wErr != nil {
		clog.AddError(ctx, errors.Join(err, wErr))
	}
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, response any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(response); err != nil {
		WriteJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}
