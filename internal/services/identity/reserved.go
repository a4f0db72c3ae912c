package identity

import "strings"

// ReservedAdmins — имена зарезервированных администраторов. Сравнение без учёта регистра.
type ReservedAdmins struct {
	names map[string]struct{}
}

// NewReservedAdmins создаёт набор зарезервированных имён.
func NewReservedAdmins(usernames []string) *ReservedAdmins {
	names := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		names[strings.ToLower(u)] = struct{}{}
	}
	return &ReservedAdmins{names: names}
}

// Contains сообщает, является ли username зарезервированным администратором.
func (r *ReservedAdmins) Contains(username string) bool {
	_, ok := r.names[strings.ToLower(username)]
	return ok
}
