// Package intent maps structured intents from the NLU collaborator onto cart
// operations, menu queries, and session-level commands. The mapping is pure:
// ambiguity is surfaced as a clarification, never resolved by guessing.
package intent

import (
	"fmt"

	cartx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/cart"
	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

type Kind string

const (
	KindCartOp    Kind = "cart_op"
	KindMenuQuery Kind = "menu_query"
	KindCommand   Kind = "command"
	KindClarify   Kind = "clarify"
)

type CartOp string

const (
	OpAdd            CartOp = "add"
	OpRemove         CartOp = "remove"
	OpUpdateQuantity CartOp = "update_quantity"
)

type Command string

const (
	CommandConfirm Command = "confirm"
	CommandCancel  Command = "cancel"
)

// Translation is the single-variant result of translating one intent.
type Translation struct {
	Kind Kind

	Op             CartOp
	ItemCode       string
	Quantity       int
	Customizations []string

	MenuFilter string

	Command Command
}

// Translate maps an intent to exactly one translation. It performs no I/O
// and never touches the cart; validation happens when the operation is
// applied.
func Translate(in contractx.Intent) Translation {
	switch in.Kind {
	case contractx.IntentAddItem:
		return Translation{
			Kind:           KindCartOp,
			Op:             OpAdd,
			ItemCode:       in.ItemCode,
			Quantity:       in.Quantity,
			Customizations: in.Customizations,
		}
	case contractx.IntentRemoveItem:
		return Translation{
			Kind:           KindCartOp,
			Op:             OpRemove,
			ItemCode:       in.ItemCode,
			Customizations: in.Customizations,
		}
	case contractx.IntentUpdateQuantity:
		return Translation{
			Kind:           KindCartOp,
			Op:             OpUpdateQuantity,
			ItemCode:       in.ItemCode,
			Quantity:       in.Quantity,
			Customizations: in.Customizations,
		}
	case contractx.IntentQueryMenu:
		return Translation{
			Kind:       KindMenuQuery,
			MenuFilter: in.MenuFilter,
		}
	case contractx.IntentConfirmOrder:
		return Translation{Kind: KindCommand, Command: CommandConfirm}
	case contractx.IntentCancelOrder:
		return Translation{Kind: KindCommand, Command: CommandCancel}
	default:
		return Translation{Kind: KindClarify}
	}
}

// ApplyTo runs a cart-op translation against a cart. Errors are the cart's
// own user-input sentinels (ErrUnknownItem, ErrInvalidQuantity,
// ErrItemNotInCart) and recoverable by the conversation layer.
func (t Translation) ApplyTo(c *cartx.Cart) error {
	if t.Kind != KindCartOp {
		return fmt.Errorf("%w: translation %s is not a cart operation", contractx.ErrValidation, t.Kind)
	}
	switch t.Op {
	case OpAdd:
		return c.AddItem(t.ItemCode, t.Quantity, t.Customizations)
	case OpRemove:
		return c.RemoveItem(t.ItemCode, t.Customizations)
	case OpUpdateQuantity:
		return c.UpdateQuantity(t.ItemCode, t.Customizations, t.Quantity)
	default:
		return fmt.Errorf("%w: unknown cart op %q", contractx.ErrValidation, t.Op)
	}
}
