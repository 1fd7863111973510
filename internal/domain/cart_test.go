package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestCartAddItem(t *testing.T) {
	cart := NewGuestCart("c1")
	assert.True(t, cart.IsEmpty())

	require.NoError(t, cart.AddItem("book-1", 1))
	require.NoError(t, cart.AddItem("book-1", 2))
	require.NoError(t, cart.AddItem("book-2", 1))

	assert.Equal(t, []CartLine{{ProductID: "book-1", Quantity: 3}, {ProductID: "book-2", Quantity: 1}}, cart.Items)
	assert.Error(t, cart.AddItem("", 1))
	assert.Error(t, cart.AddItem("book-3", 0))
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleAdmin.In(RoleAdmin, RoleDelivery))
	assert.False(t, RoleCustomer.In(RoleAdmin))
	assert.False(t, RoleCustomer.In())
	assert.True(t, RoleDelivery.Valid())
	assert.False(t, Role("GUEST").Valid())
	assert.Equal(t, "ADMIN, DELIVERY", JoinRoles([]Role{RoleAdmin, RoleDelivery}))
}
