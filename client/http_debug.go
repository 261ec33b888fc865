package client

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog"
)

// debugTransport provides detailed HTTP request/response logging for the
// auth endpoint.
//
// When to use:
//   - Set MAISON_DEBUG=true or DEBUG=true environment variable
//   - When a login or registration is rejected for an unclear reason
//
// Security considerations:
//   - Dumps include passwords and access tokens
//   - Only enable in development environments
//
// Example usage:
//
//	export MAISON_DEBUG=true
//	maisonctl login marie secret  # auth traffic is now logged at debug level
type debugTransport struct {
	base http.RoundTripper
	log  *zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}
	log := dt.logger()

	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

func (dt *debugTransport) logger() *zerolog.Logger {
	if dt.log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return dt.log
}

// debugLoggingRequested checks if HTTP debug logging should be enabled.
//
// Activation methods:
//   - MAISON_DEBUG=true (maison-specific debug flag)
//   - DEBUG=true (general debug flag, common in development workflows)
func debugLoggingRequested() bool {
	return os.Getenv("MAISON_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
