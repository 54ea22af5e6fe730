// Package access decides whether a user may participate in a room. It is
// pure: no persistence calls, no side effects.
package access

import (
	"github.com/malek283/shop-chat/internal/entity"
)

// Authorize reports whether user may join room. For shop rooms the owning
// shop must be supplied; it may be nil for admin rooms.
func Authorize(role entity.Role, user *entity.User, room *entity.Room, shop *entity.Shop) bool {
	switch room.Kind {
	case entity.RoomKindAdmin:
		return role == entity.RoleAdmin
	case entity.RoomKindShop:
		switch role {
		case entity.RoleMerchant:
			return shop != nil && shop.MerchantID == user.ID
		case entity.RoleCustomer:
			return true
		case entity.RoleAdmin:
			return false
		}
		return false
	}
	return false
}
