package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected is returned by a Scanner that found malware.
var ErrInfected = errors.New("upload: file is infected")

// Scanner checks file content before it is stored.
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// ClamAV scans through a clamd daemon.
type ClamAV struct {
	client *clamd.Clamd
}

// NewClamAV connects to clamd at addr, e.g. "tcp://localhost:3310".
func NewClamAV(addr string) *ClamAV {
	return &ClamAV{client: clamd.NewClamd(addr)}
}

// Ping checks that the daemon answers.
func (c *ClamAV) Ping() error {
	return c.client.Ping()
}

// Scan streams r to clamd. It returns ErrInfected when a signature matched.
func (c *ClamAV) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := c.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				return nil
			}
			switch res.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, res.Description)
			default:
				return fmt.Errorf("clamd scan: %s %s", res.Status, res.Description)
			}
		}
	}
}
