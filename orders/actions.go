package orders

import (
	"fmt"
	"strings"

	"github.com/cryptonaira/nairadesk/models"
)

// Button data sent by users.
const (
	ActionBuy         = "buy"
	ActionSell        = "sell"
	ActionConfirmSell = "confirm_sell"
	ActionCancel      = "cancel"
	ActionReceived    = "received"
	ActionNotReceived = "not_received"
	ActionExit        = "exit"

	networkPrefix = "net:"
	adminPrefix   = "admin:"
)

// Admin actions. They are encoded with the owner they act on.
const (
	AdminApprove       = "approve"
	AdminReject        = "reject"
	AdminPending       = "pending"
	AdminTransferDone  = "transfer_done"
	AdminConfirm       = "confirm"
	AdminNairaSent     = "naira_sent"
	AdminPendingNotify = "pending_notify"
)

// NetworkAction encodes a network choice.
func NetworkAction(n models.Network) string {
	return networkPrefix + n.String()
}

// ParseNetworkAction returns the network name in a network choice. The
// name is not validated.
func ParseNetworkAction(data string) (string, bool) {
	if !strings.HasPrefix(data, networkPrefix) {
		return "", false
	}
	return strings.TrimPrefix(data, networkPrefix), true
}

// AdminAction encodes an admin action on owner's transaction.
func AdminAction(action string, owner models.Owner) string {
	return fmt.Sprintf("%s%s:%s", adminPrefix, action, owner)
}

// ParseAdminAction decodes data produced by AdminAction.
func ParseAdminAction(data string) (string, models.Owner, bool) {
	if !strings.HasPrefix(data, adminPrefix) {
		return "", 0, false
	}
	parts := strings.SplitN(strings.TrimPrefix(data, adminPrefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, false
	}
	owner, err := models.ParseOwner(parts[1])
	if err != nil {
		return "", 0, false
	}
	return parts[0], owner, true
}

// IsAdminButton returns whether data is an admin button, valid or not.
func IsAdminButton(data string) bool {
	return strings.HasPrefix(data, adminPrefix)
}
