package state

import "encoding/json"

// Privileges maps a server-wide privilege name to whether it is granted.
type Privileges map[string]Flag

// Admin reports whether the admin privilege is granted.
func (p Privileges) Admin() bool {
	return bool(p["admin"])
}

// User is the long-lived record for one user, keyed by username.
// Fields the server sends that we have no use for are kept verbatim
// in Extra so partial updates never lose them.
type User struct {
	Username   string
	Nickname   string
	FullName   string
	Privileges Privileges
	Extra      map[string]json.RawMessage
}

// Clone returns a copy that shares no maps with the receiver.
func (u User) Clone() User {
	out := u
	if u.Privileges != nil {
		out.Privileges = make(Privileges, len(u.Privileges))
		for k, v := range u.Privileges {
			out.Privileges[k] = v
		}
	}
	if u.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(u.Extra))
		for k, v := range u.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// UserUpdate is a partial update for a User. Nil fields were absent
// from the wire payload and must preserve the existing value.
type UserUpdate struct {
	Username   *string
	Nickname   *string
	FullName   *string
	Privileges Privileges
	Extra      map[string]json.RawMessage
}

func (u *UserUpdate) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	for key, raw := range fields {
		var err error
		switch key {
		case "cmd":
			// envelope routing tag, not user data
		case "username":
			err = json.Unmarshal(raw, &u.Username)
		case "nickname":
			err = json.Unmarshal(raw, &u.Nickname)
		case "full_name":
			err = json.Unmarshal(raw, &u.FullName)
		case "privileges":
			err = json.Unmarshal(raw, &u.Privileges)
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]json.RawMessage)
			}
			u.Extra[key] = raw
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the update into the record. Each specified field
// overwrites; unspecified fields keep their current value.
func (u *User) Apply(up UserUpdate) {
	if up.Username != nil {
		u.Username = *up.Username
	}
	if up.Nickname != nil {
		u.Nickname = *up.Nickname
	}
	if up.FullName != nil {
		u.FullName = *up.FullName
	}
	if up.Privileges != nil {
		u.Privileges = up.Privileges
	}
	for key, raw := range up.Extra {
		if u.Extra == nil {
			u.Extra = make(map[string]json.RawMessage)
		}
		u.Extra[key] = raw
	}
}
