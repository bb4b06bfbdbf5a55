package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/restaurant-floor/utils"
)

func TestRecordOperationLabelsOutcome(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("scan_qr", "capacity_exceeded"))
	RecordOperation("scan_qr", utils.ErrCapacityExceeded("full"))
	after := testutil.ToFloat64(operationsTotal.WithLabelValues("scan_qr", "capacity_exceeded"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(operationsTotal.WithLabelValues("scan_qr", "success"))
	RecordOperation("scan_qr", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(operationsTotal.WithLabelValues("scan_qr", "success")))
}
