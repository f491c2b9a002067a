package permissions

type Permission uint64

const (
	ViewChannels   Permission = 1 << 0
	SendMessages   Permission = 1 << 1
	ManageMessages Permission = 1 << 5
	KickMembers    Permission = 1 << 15
	BanMembers     Permission = 1 << 16
	Administrator  Permission = 1 << 17
)

// Has reports whether perms grants every bit of required. Administrator
// grants everything.
func Has(perms, required Permission) bool {
	if perms&Administrator != 0 {
		return true
	}
	return perms&required == required
}
