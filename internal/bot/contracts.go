package bot

import (
	"context"

	"shachar-bot/pkg/whapi"
)

// Transport is the message gateway the polling loop drives.
type Transport interface {
	ListMessages(ctx context.Context, since int64) ([]whapi.Message, error)
	SendText(ctx context.Context, to, body string) error
}

// CRM is the account/opportunity store orders are recorded in.
type CRM interface {
	GetAccountByPhone(ctx context.Context, phone string) (string, error)
	CreateAccount(ctx context.Context, name, phone string) (string, error)
	CreateOpportunity(ctx context.Context, accountID string, amount float64, orderNumber, description, phone string) (string, error)
	GetOpportunityStageByOrderNumber(ctx context.Context, orderNumber string) (string, error)
}

// Billing turns a finalized order into a client, shipping document and
// invoice, returning the invoice URL.
type Billing interface {
	ProcessOrder(ctx context.Context, name, phone, orderNumber string, totalPrice float64, address string) (string, error)
}
