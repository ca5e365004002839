package bot

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

// ProcessMessage runs one state-machine turn for an inbound message.
// Text is expected to be trimmed by the caller.
func (b *Bot) ProcessMessage(ctx context.Context, userID, text string) {
	if _, ok := b.allowed[userID]; !ok {
		// Not on the allow-list: drop silently, no reply, no session.
		b.logger.Debug("Dropping message from unknown sender",
			zap.String("user_id", userID))
		return
	}

	// The restart token wins over every state: abandon and start over.
	if text == RestartToken {
		b.restart(ctx, userID)
		return
	}

	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.sessions.Create(userID)
		b.send(ctx, userID, welcomeMessage(b.storeName))
		return
	}

	handler, ok := b.handlers[sess.Step]
	if !ok {
		b.logger.Error("Session in unknown step, restarting dialog",
			zap.String("user_id", userID),
			zap.String("step", sess.Step))
		b.restart(ctx, userID)
		return
	}

	handler(ctx, userID, sess, text)
}

func (b *Bot) registerHandlers() {
	b.handlers = map[string]stepHandler{
		StepChoice:        b.handleChoice,
		StepInquiryNumber: b.handleInquiryNumber,
		StepName:          b.handleName,
		StepSize:          b.handleSize,
		StepAmount:        b.handleAmount,
		StepPack:          b.handlePack,
		StepPackQuantity:  b.handlePackQuantity,
		StepType:          b.handleType,
		StepAddress:       b.handleAddress,
	}
}

func (b *Bot) restart(ctx context.Context, userID string) {
	b.sessions.Reset(userID)
	b.send(ctx, userID, welcomeMessage(b.storeName))
}

func (b *Bot) handleChoice(ctx context.Context, userID string, sess *Session, text string) {
	switch text {
	case "1":
		sess.Step = StepInquiryNumber
		b.send(ctx, userID, msgAskOrderNumber)
	case "2":
		sess.Step = StepName
		b.send(ctx, userID, msgAskName)
	default:
		b.send(ctx, userID, msgChoiceInvalid)
		b.send(ctx, userID, welcomeMessage(b.storeName))
	}
}

func (b *Bot) handleInquiryNumber(ctx context.Context, userID string, sess *Session, text string) {
	stage, err := b.crm.GetOpportunityStageByOrderNumber(ctx, text)
	if err != nil {
		b.logger.Error("Failed to look up opportunity stage",
			zap.String("user_id", userID),
			zap.String("order_number", text),
			zap.Error(err))
		b.send(ctx, userID, msgOrderNumberInvalid)
		return
	}

	if stage == "" {
		b.send(ctx, userID, msgOrderNumberInvalid)
		return
	}

	b.send(ctx, userID, messageFromStage(stage))
	b.sessions.Remove(userID)
}

func (b *Bot) handleName(ctx context.Context, userID string, sess *Session, text string) {
	if !ValidateName(text) {
		b.send(ctx, userID, msgNameInvalid)
		b.send(ctx, userID, msgAskName)
		return
	}

	sess.Name = text
	sess.Step = StepSize
	b.send(ctx, userID, renderQuestion(questionSize, SizeOptions))
}

func (b *Bot) handleSize(ctx context.Context, userID string, sess *Session, text string) {
	if _, ok := findOption(SizeOptions, text); !ok {
		b.sendInvalidOption(ctx, userID, questionSize, SizeOptions)
		return
	}

	sess.Size = text
	sess.Step = StepAmount
	b.send(ctx, userID, renderQuestion(questionAmount, AmountOptions))
}

func (b *Bot) handleAmount(ctx context.Context, userID string, sess *Session, text string) {
	if _, ok := findOption(AmountOptions, text); !ok {
		b.sendInvalidOption(ctx, userID, questionAmount, AmountOptions)
		return
	}

	sess.Amount = text
	sess.Step = StepPack
	b.send(ctx, userID, renderQuestion(questionPack, PackOptions))
}

func (b *Bot) handlePack(ctx context.Context, userID string, sess *Session, text string) {
	if _, ok := findOption(PackOptions, text); !ok {
		b.sendInvalidOption(ctx, userID, questionPack, PackOptions)
		return
	}

	sess.Pack = text
	sess.Step = StepPackQuantity
	b.send(ctx, userID, msgAskPackQuantity)
}

func (b *Bot) handlePackQuantity(ctx context.Context, userID string, sess *Session, text string) {
	quantity, err := strconv.Atoi(text)
	if err != nil || quantity <= 0 || !isDigits(text) {
		b.send(ctx, userID, msgPackQtyInvalid)
		return
	}

	sess.PackQuantity = quantity
	sess.Step = StepType
	b.send(ctx, userID, renderQuestion(questionType, TypeOptions))
}

func (b *Bot) handleType(ctx context.Context, userID string, sess *Session, text string) {
	if _, ok := findOption(TypeOptions, text); !ok {
		b.sendInvalidOption(ctx, userID, questionType, TypeOptions)
		return
	}

	sess.Type = text
	sess.Step = StepAddress

	total, err := CalculatePrice(sess)
	if err != nil {
		b.logger.Error("Failed to price order",
			zap.String("user_id", userID),
			zap.Error(err))
		b.restart(ctx, userID)
		return
	}

	b.send(ctx, userID, priceAndAddressMessage(total))
}

func (b *Bot) handleAddress(ctx context.Context, userID string, sess *Session, text string) {
	if !ValidateAddress(text) {
		b.send(ctx, userID, msgAddressInvalid)
		return
	}

	sess.Address = text
	b.finalizeOrder(ctx, userID, sess)
}

func (b *Bot) sendInvalidOption(ctx context.Context, userID, question string, options []Option) {
	b.send(ctx, userID, msgOptionInvalid)
	b.send(ctx, userID, renderQuestion(question, options))
}

// isDigits rejects inputs like "+3" or "3.0" that Atoi would accept.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
