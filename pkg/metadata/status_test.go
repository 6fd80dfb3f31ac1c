package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryStatusTransitions(t *testing.T) {
	tests := []struct {
		from     DeliveryStatus
		to       DeliveryStatus
		expected bool
	}{
		{DeliveryPending, DeliveryDelivered, true},
		{DeliveryPending, DeliveryCancelled, true},
		{DeliveryPending, DeliveryPending, false},
		{DeliveryDelivered, DeliveryCancelled, false},
		{DeliveryDelivered, DeliveryPending, false},
		{DeliveryCancelled, DeliveryDelivered, false},
		{DeliveryCancelled, DeliveryPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewDeliveryStatus(t *testing.T) {
	status, err := NewDeliveryStatus("delivered")
	assert.NoError(t, err)
	assert.Equal(t, DeliveryDelivered, status)

	_, err = NewDeliveryStatus("shipped")
	assert.Error(t, err)
}

func TestSignoutStatus(t *testing.T) {
	for _, v := range []string{"returned", "damaged", "missing"} {
		status, err := NewSignoutStatus(v)
		assert.NoError(t, err)
		assert.True(t, status.IsReturn(), v)
	}

	status, err := NewSignoutStatus("checked_out")
	assert.NoError(t, err)
	assert.False(t, status.IsReturn())

	_, err = NewSignoutStatus("lost")
	assert.Error(t, err)
}

func TestNewIssuanceReason(t *testing.T) {
	reason, err := NewIssuanceReason("maintenance")
	assert.NoError(t, err)
	assert.Equal(t, ReasonMaintenance, reason)

	_, err = NewIssuanceReason("gift")
	assert.Error(t, err)
}
