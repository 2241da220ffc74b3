package spatial

import (
	"io"
	"math"
	"os"
	"testing"

	"github.com/milk9111/worldedit/logger"
)

func logOff(t *testing.T) {
	t.Helper()
	logger.Log.SetOutput(io.Discard)
	t.Cleanup(func() { logger.Log.SetOutput(os.Stderr) })
}

func nanValue() float64 { return math.NaN() }
