package hls

import (
	"io"
	"testing"

	"go.uber.org/goleak"

	xglog "github.com/ManuGH/wavecast/internal/log"
)

func TestMain(m *testing.M) {
	xglog.Configure(xglog.Config{Level: "error", Output: io.Discard})
	goleak.VerifyTestMain(m)
}
