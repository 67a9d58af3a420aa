package live

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Connect dials url, wires a Session onto the connection and starts
// reading. The caller owns the session and must Disconnect it.
func Connect(ctx context.Context, url string, opts Options) (*Session, *Conn, error) {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	conn, err := Dial(ctx, url, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	s := New(conn, opts)
	conn.Listen()
	return s, conn, nil
}
