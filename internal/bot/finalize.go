package bot

import (
	"context"

	"go.uber.org/zap"
)

const maxOrderNumberAttempts = 5

// finalizeOrder runs the fulfillment sequence for a completed session:
// price, order number, customer confirmation, CRM records, billing, invoice
// delivery. Collaborator failures abort the remaining steps without
// compensation; the customer has already been confirmed at that point and
// the gap is surfaced in the logs only. The session is evicted regardless
// of how far the sequence got.
func (b *Bot) finalizeOrder(ctx context.Context, userID string, sess *Session) {
	defer b.sessions.Remove(userID)

	total, err := CalculatePrice(sess)
	if err != nil {
		b.logger.Error("Failed to price completed order",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	phone := NormalizePhone(userID)
	orderNumber := b.uniqueOrderNumber(ctx)

	b.send(ctx, userID, confirmationMessage(sess.Name, total, sess.Address, orderNumber))

	b.logger.Info("Order finalized",
		zap.String("user_id", userID),
		zap.String("order_number", orderNumber),
		zap.String("name", sess.Name),
		zap.String("size", sess.Size),
		zap.String("amount", sess.Amount),
		zap.String("pack", sess.Pack),
		zap.Int("pack_quantity", sess.PackQuantity),
		zap.String("type", sess.Type),
		zap.String("address", sess.Address),
		zap.String("phone", phone),
		zap.Float64("total_price", total))

	accountID, err := b.crm.GetAccountByPhone(ctx, phone)
	if err != nil {
		b.logger.Error("Failed to look up CRM account",
			zap.String("order_number", orderNumber),
			zap.String("phone", phone),
			zap.Error(err))
		return
	}
	if accountID == "" {
		accountID, err = b.crm.CreateAccount(ctx, sess.Name, phone)
		if err != nil {
			b.logger.Error("Failed to create CRM account",
				zap.String("order_number", orderNumber),
				zap.String("phone", phone),
				zap.Error(err))
			return
		}
	}

	if _, err := b.crm.CreateOpportunity(ctx, accountID, total, orderNumber,
		opportunityDescription(sess), phone); err != nil {
		b.logger.Error("Failed to create CRM opportunity",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return
	}

	invoiceURL, err := b.billing.ProcessOrder(ctx, sess.Name, phone, orderNumber, total, sess.Address)
	if err != nil {
		b.logger.Error("Failed to process order in billing",
			zap.String("order_number", orderNumber),
			zap.Error(err))
		return
	}

	b.send(ctx, userID, invoiceURL)
}

// uniqueOrderNumber generates an order number the CRM does not already
// know. The check is best-effort: a query failure accepts the candidate
// rather than blocking the order.
func (b *Bot) uniqueOrderNumber(ctx context.Context) string {
	var number string
	for i := 0; i < maxOrderNumberAttempts; i++ {
		number = GenerateOrderNumber()

		stage, err := b.crm.GetOpportunityStageByOrderNumber(ctx, number)
		if err != nil {
			b.logger.Warn("Order number uniqueness check failed",
				zap.String("order_number", number),
				zap.Error(err))
			return number
		}
		if stage == "" {
			return number
		}

		b.logger.Warn("Order number collision, regenerating",
			zap.String("order_number", number))
	}
	return number
}
