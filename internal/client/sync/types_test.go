package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wheelway/wheelway/internal/client/identity"
)

// item ids carry the device id so queue dumps from multi-device accounts stay
// attributable
func TestNewItemIDEmbedsDeviceID(t *testing.T) {
	id := newItemID(RecordTrip, OpInsert, 1700000000000)

	assert.True(t, strings.HasPrefix(id, "trip_insert_1700000000000_"))
	assert.Contains(t, id, "_"+identity.DeviceID()+"_")

	// the random tail keeps same-millisecond ids distinct
	other := newItemID(RecordTrip, OpInsert, 1700000000000)
	assert.NotEqual(t, id, other)
}
