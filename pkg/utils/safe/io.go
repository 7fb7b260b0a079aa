package safe

import (
	"context"
	"fmt"
	"io"

	"github.com/secmon-lab/hippo/pkg/utils/logging"
)

// Close closes c and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close",
			"error", err,
			"type", fmt.Sprintf("%T", c),
		)
	}
}

// Write writes data to w and logs a failure or a short write. Use it
// where the response is already committed and nothing can be returned.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	switch {
	case err != nil:
		logging.From(ctx).Warn("failed to write", "error", err, "size", len(data))
	case n < len(data):
		logging.From(ctx).Warn("short write", "written", n, "size", len(data))
	}
}
