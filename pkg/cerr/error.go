package cerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"github.com/sadreammm/Helply/pkg/clog"
)

// Error pairs a client facing message with the underlying error that only
// goes to the log.
type Error struct {
	Code  Code
	Msg   string
	Err   error
	Stack string
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.serverSide() {
		buf := make([]byte, 2048)
		n := runtime.Stack(buf, false)
		err.Stack = string(buf[:n])
	}
	return err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// normalize turns any error into an *Error, recording it on the request
// log context on the way.
func normalize(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return NewError(Canceled, "connection closed", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled" {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var cErr *Error
	if errors.As(err, &cErr) {
		if cErr.Stack != "" {
			clog.AddStack(ctx, cErr.Stack)
		}
		return cErr
	}
	cErr = NewError(Unknown, "unknown error", err)
	clog.AddStack(ctx, cErr.Stack)
	return cErr
}
