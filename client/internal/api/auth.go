package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
)

// maxErrorBody bounds how much of a rejection body is kept for diagnostics.
const maxErrorBody = 4 << 10

// authEnvelope accepts both `{"user": {...}, "token": "..."}` and a bare
// user record.
type authEnvelope struct {
	User   *types.AuthUser `json:"user"`
	Token  string          `json:"token"`
	Access string          `json:"access"`
}

// Login exchanges credentials for a user record.
// Any failure, including an unreachable endpoint, is an ErrAuthentication.
func Login(ctx context.Context, httpClient HTTPClient, baseURL string, req types.LoginRequest) (*types.AuthUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrAuthentication, err)
	}
	if err := types.Validate(req); err != nil {
		return nil, errors.Wrap(errors.ErrAuthentication, err)
	}
	url := fmt.Sprintf("%s/auth/login/", baseURL)
	u, err := postJSON(ctx, httpClient, url, "login", req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAuthentication, err)
	}
	return u, nil
}

// Register creates an account and returns its user record.
// Any failure, e.g. a duplicate email or a cancelled ctx, is an ErrRegistration.
func Register(ctx context.Context, httpClient HTTPClient, baseURL string, req types.RegisterRequest) (*types.AuthUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrRegistration, err)
	}
	url := fmt.Sprintf("%s/auth/register/", baseURL)
	u, err := postJSON(ctx, httpClient, url, "register", req, http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(errors.ErrRegistration, err)
	}
	return u, nil
}

func postJSON(ctx context.Context, httpClient HTTPClient, url, op string, payload any, accept ...int) (*types.AuthUser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !statusIn(resp.StatusCode, accept) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.NewHTTPError(resp.StatusCode, string(b), op)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(op, err)
	}
	return decodeAuthUser(raw)
}

func decodeAuthUser(raw []byte) (*types.AuthUser, error) {
	var env authEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u := env.User
	if u == nil {
		u = &types.AuthUser{}
		if err := json.Unmarshal(raw, u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
	}
	if u.Token == "" {
		u.Token = env.Token
	}
	if u.Token == "" {
		u.Token = env.Access
	}
	return u, nil
}

func statusIn(code int, accept []int) bool {
	for _, c := range accept {
		if code == c {
			return true
		}
	}
	return false
}
