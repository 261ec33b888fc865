package client

import (
	"context"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
)

// executor abstracts the per-key write queue every store persists through.
type executor interface {
	SubmitWait(context.Context, string, shardqueue.Job) error
	Stop()
}

// Note: all clients include an executor by default; store writes require it.
