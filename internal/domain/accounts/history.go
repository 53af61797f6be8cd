package accounts

// MaxHistoryEntries bounds the recent-IP and recent-device lists.
const MaxHistoryEntries = 5

// Classification is the result of checking a login origin against the
// account's recent history.
type Classification struct {
	NewIP     bool
	NewDevice bool
}

// Novel reports whether either origin component is unseen.
func (c Classification) Novel() bool {
	return c.NewIP || c.NewDevice
}

// HistoryUpdate is the computed next state of an account's login
// history. The tracker never persists; the repository applies it.
type HistoryUpdate struct {
	LastLoginIP   string
	RecentIPs     []string
	RecentDevices []string
}

// Classify checks ip and device fingerprint against the account's
// current lists. Pure membership test, no mutation: callers rely on it
// reading the pre-update lists so a login cannot suppress its own alert.
func Classify(account *Account, ip, device string) Classification {
	return Classification{
		NewIP:     !contains(account.RecentIPs, ip),
		NewDevice: !contains(account.RecentDevices, device),
	}
}

// RecordLogin computes the updated history lists: the new value is
// prepended, duplicates collapse keeping first occurrence order, and
// the list is truncated to MaxHistoryEntries. An empty IP is still
// recorded so repeated anomalous logins are not masked.
func RecordLogin(account *Account, ip, device string) HistoryUpdate {
	return HistoryUpdate{
		LastLoginIP:   ip,
		RecentIPs:     pushRecent(account.RecentIPs, ip),
		RecentDevices: pushRecent(account.RecentDevices, device),
	}
}

func pushRecent(list []string, value string) []string {
	updated := make([]string, 0, MaxHistoryEntries)
	updated = append(updated, value)
	for _, item := range list {
		if item == value {
			continue
		}
		updated = append(updated, item)
		if len(updated) == MaxHistoryEntries {
			break
		}
	}
	return updated
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
