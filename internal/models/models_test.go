package models

import (
	"testing"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDuckMethodsOnOptionValues(t *testing.T) {
	found := mo.Some(Duck{ID: 5, Quantity: 0, Price: decimal.RequireFromString("4.5")})

	assert.Equal(t, "$4.50", found.MustGet().DisplayPrice())
	assert.False(t, found.MustGet().InStock())
}

func TestCartClone(t *testing.T) {
	var missing *Cart
	assert.Nil(t, missing.Clone())
	assert.True(t, missing.IsEmpty())

	cart := NewCart(1)
	cart.Items[5] = 2
	copied := cart.Clone()
	copied.Items[5] = 1

	assert.Equal(t, 2, cart.Items[5])
	assert.False(t, cart.IsEmpty())
}
