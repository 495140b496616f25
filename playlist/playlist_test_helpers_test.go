package playlist

import (
	"io"

	"github.com/ausocean/utils/logging"
)

func testLogger() logging.Logger {
	return logging.New(logging.Info, io.Discard, true)
}
