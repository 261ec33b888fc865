package api

import (
	"net/http"
)

// HTTPClient is the transport the auth calls go through.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
