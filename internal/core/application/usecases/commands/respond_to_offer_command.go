package commands

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

// OfferReply is the classified intent of a driver's response to an offer.
// Inbound adapters map link clicks and classified SMS vocabulary onto it.
type OfferReply int

const (
	// ReplyAmbiguous means the reply could not be classified; the handler
	// asks for clarification instead of guessing.
	ReplyAmbiguous OfferReply = iota

	// ReplyAccept accepts the offer.
	ReplyAccept

	// ReplyDecline declines the offer.
	ReplyDecline
)

// Validate checks the reply is one of the defined intents.
func (r OfferReply) Validate() error {
	switch r {
	case ReplyAmbiguous, ReplyAccept, ReplyDecline:
		return nil
	default:
		return ErrReplyIsInvalid
	}
}

var (
	ErrRespondToOfferCommandIsNotConstructed = errors.New(
		"RespondToOfferCommand must be created via NewRespondToOfferCommand constructor",
	)
	ErrTokenIsRequired = errors.New("offer token is required")
	ErrReplyIsInvalid  = errors.New("reply is not a known offer reply")
)

// RespondToOfferCommand carries a driver's response to an offer: the
// bearer token naming the offer, and the classified reply intent.
type RespondToOfferCommand struct { //nolint:recvcheck //using for validation
	token string
	reply OfferReply

	guard guard.ConstructorGuard
}

// NewRespondToOfferCommand creates a command for one offer response.
func NewRespondToOfferCommand(token string, reply OfferReply) (RespondToOfferCommand, error) {
	cmd := RespondToOfferCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setToken(token),
		cmd.setReply(reply),
	); err != nil {
		return RespondToOfferCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RespondToOfferCommand) Validate() error {
	return c.guard.Validate(ErrRespondToOfferCommandIsNotConstructed)
}

// Token returns the offer bearer token.
func (c RespondToOfferCommand) Token() string {
	return c.token
}

// Reply returns the classified response intent.
func (c RespondToOfferCommand) Reply() OfferReply {
	return c.reply
}

func (c *RespondToOfferCommand) setToken(token string) error {
	if token == "" {
		return ErrTokenIsRequired
	}

	c.token = token
	return nil
}

func (c *RespondToOfferCommand) setReply(reply OfferReply) error {
	if err := reply.Validate(); err != nil {
		return err
	}

	c.reply = reply
	return nil
}
