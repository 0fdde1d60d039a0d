package events

import "github.com/cryptonaira/nairadesk/models"

type subSettings struct {
	buffer int
	owner  *models.Owner
}

var subSettingsDefault = subSettings{
	buffer: 16,
}

// BufSize sets the size of the subscription's channel buffer.
func BufSize(n int) SubscriptionOpt {
	return func(s interface{}) error {
		s.(*subSettings).buffer = n
		return nil
	}
}

// ForOwner restricts a subscription to events about one user's
// transactions. Events that don't carry an owner are still delivered.
func ForOwner(owner models.Owner) SubscriptionOpt {
	return func(s interface{}) error {
		s.(*subSettings).owner = &owner
		return nil
	}
}
