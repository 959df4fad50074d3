package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsDuration(t *testing.T) {
	assert.Equal(t, time.Second, AsDuration(TickRate))
	assert.Equal(t, time.Duration(0), AsDuration(0))
}

func TestRxWindowsDoNotOverlap(t *testing.T) {
	assert.Less(t, int64(RxSingleTEMax), int64(RxDoubleTEMin))
}

func TestTxWindowsDoNotOverlap(t *testing.T) {
	assert.Less(t, int64(TxSingleTEMax), int64(TxDoubleTEMin))
}

func TestForwardSettleIsMonotonicallyIncreasing(t *testing.T) {
	for i := 1; i < len(ForwardSettle); i++ {
		assert.Greater(t, ForwardSettle[i], ForwardSettle[i-1])
	}
}
