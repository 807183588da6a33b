package monitor

import (
	"testing"

	"github.com/sdpower/tokenflow-go/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestViewRateLimitOrder(t *testing.T) {
	// The per-family percentage pair reads min end first, same as the
	// rate-limit table's "Used %" column.
	m := model{
		rateInfo: types.RateLimitInfo{
			PercentUsed: map[string]types.Range{"sonnet4": {Min: 3.0, Max: 1.5}},
		},
	}

	out := m.View()
	assert.Contains(t, out, "300% - 150%")
}
