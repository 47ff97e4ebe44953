package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusForStock(t *testing.T) {
	assert.Equal(t, ProductStatusActive, StatusForStock(3))
	assert.Equal(t, ProductStatusOutOfStock, StatusForStock(0))
	assert.Equal(t, ProductStatusOutOfStock, StatusForStock(-2))
}

func TestProductUpdateIsEmpty(t *testing.T) {
	assert.True(t, ProductUpdate{}.IsEmpty())
	name := "Compost"
	assert.False(t, ProductUpdate{Name: &name}.IsEmpty())
}

func TestProductValidateNew(t *testing.T) {
	p := Product{Name: "Vermicast", Category: "Fertilizer", Price: NewMoney(decimal.NewFromInt(120)), StockQuantity: 4}
	assert.NoError(t, p.ValidateNew())

	noPrice := p
	noPrice.Price = Money{}
	assert.EqualError(t, noPrice.ValidateNew(), "Product name, category, and price are required.")

	negative := p
	negative.StockQuantity = -1
	assert.Error(t, negative.ValidateNew())
}

func TestProductUpdateValidate(t *testing.T) {
	assert.EqualError(t, ProductUpdate{}.Validate(), "No data provided to update.")

	stock := -3
	assert.Error(t, ProductUpdate{StockQuantity: &stock}.Validate())

	price := decimal.NewFromInt(0)
	assert.Error(t, ProductUpdate{Price: &price}.Validate())

	stock = 10
	assert.NoError(t, ProductUpdate{StockQuantity: &stock}.Validate())
}

func TestParseNotificationType(t *testing.T) {
	nt, err := ParseNotificationType("")
	assert.NoError(t, err)
	assert.Equal(t, NotificationGeneral, nt)

	nt, err = ParseNotificationType("ORDER")
	assert.NoError(t, err)
	assert.Equal(t, NotificationOrder, nt)

	_, err = ParseNotificationType("sms")
	assert.Error(t, err)
}

func TestOrderNotificationText(t *testing.T) {
	title, msg := AdminOrderNotification(12, "215.00")
	assert.Equal(t, "New Order Received", title)
	assert.Equal(t, "New order #12 has been placed with total amount ₱215.00. Please review and process.", msg)

	title, msg = BuyerOrderNotification(12, "215.00")
	assert.Equal(t, "Order Confirmed", title)
	assert.Contains(t, msg, "Your order #12 has been placed successfully")
}

func TestParseUserStatus(t *testing.T) {
	s, err := ParseUserStatus("suspended")
	assert.NoError(t, err)
	assert.Equal(t, UserStatusSuspended, s)

	_, err = ParseUserStatus("banned")
	assert.Error(t, err)
}

func TestNewUserValidate(t *testing.T) {
	ok := NewUser{FirstName: "Ana", LastName: "Reyes", Username: "ana", Email: "ana@example.com", Password: "secret12"}
	assert.NoError(t, ok.Validate())

	badEmail := ok
	badEmail.Email = "ana.example.com"
	assert.EqualError(t, badEmail.Validate(), "Invalid email format.")

	short := ok
	short.Password = "abc"
	assert.EqualError(t, short.Validate(), "Password must be at least 8 characters long.")

	missing := ok
	missing.LastName = ""
	assert.Error(t, missing.Validate())
}
