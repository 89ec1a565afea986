package state

// Goodbye reasons that mean the server pushed us out of the channel.
const (
	ReasonPrivate = "private"
	ReasonDelete  = "delete"
	ReasonKick    = "kick"
)

// Replica is the client-held mirror of server-authoritative channel
// and user state. It is updated incrementally, one event per call, and
// survives reconnects: a session resume merges into it, never wipes it.
//
// Replica is not safe for concurrent use; the owning client serializes
// every call.
type Replica struct {
	username string
	self     User
	users    map[string]User
	channels map[string]*Channel

	normalize func(string) string
}

// NewReplica builds an empty replica. normalize converts rich message
// bodies to plain text for chat enrichment; nil means identity.
func NewReplica(normalize func(string) string) *Replica {
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	return &Replica{
		users:     make(map[string]User),
		channels:  make(map[string]*Channel),
		normalize: normalize,
	}
}

// SetIdentity records the canonical username and own user record from
// a login response.
func (r *Replica) SetIdentity(username string, self UserUpdate) {
	r.username = username
	r.self = User{}
	r.self.Apply(self)
}

// SetUsers replaces the global user table with the login payload.
func (r *Replica) SetUsers(users map[string]UserUpdate) {
	r.users = make(map[string]User, len(users))
	for name, up := range users {
		var u User
		u.Apply(up)
		if u.Username == "" {
			u.Username = name
		}
		r.users[name] = u
	}
}

// MergeChannels folds a login channel payload into the replica.
// Existing channels keep fields absent from the payload; conflicting
// fields take the new value. Applying the same payload twice is
// idempotent.
func (r *Replica) MergeChannels(channels map[string]ChannelUpdate) {
	for id, up := range channels {
		ch := r.ensureChannel(id)
		ch.Apply(up)
	}
}

// Joined adds a user to a channel's live roster. Unknown channels are
// ignored; the server will catch us up with a later welcome or login.
func (r *Replica) Joined(channelID, username string, user UserUpdate) {
	ch, ok := r.channels[channelID]
	if !ok {
		return
	}
	if user.Username != nil {
		username = *user.Username
	}
	if username == "" {
		return
	}
	if ch.LiveUsers == nil {
		ch.LiveUsers = make(map[string]Presence)
	}
	ch.LiveUsers[username] = Presence{Live: true}
}

// Left removes a user from a channel's live roster. Unknown channels
// are ignored.
func (r *Replica) Left(channelID, username string) {
	ch, ok := r.channels[channelID]
	if !ok {
		return
	}
	delete(ch.LiveUsers, username)
}

// Welcome merges the server's channel snapshot, releases any history
// buffer and marks the channel as having an active UI context.
func (r *Replica) Welcome(channelID string, up ChannelUpdate) {
	ch := r.ensureChannel(channelID)
	ch.Apply(up)
	ch.History = nil
	ch.UI = true
}

// Goodbye clears the UI context and roster for a channel we left.
// It reports whether the reason means we were pushed out and observers
// should be told.
func (r *Replica) Goodbye(channelID, reason string) bool {
	ch, ok := r.channels[channelID]
	if !ok {
		return false
	}
	ch.UI = false
	ch.LiveUsers = nil

	switch reason {
	case ReasonPrivate, ReasonDelete, ReasonKick:
		return true
	}
	return false
}

// Said enriches a received chat message in place: defaults the type,
// derives plain text, and copies sender nickname, full name and admin
// status from the user table and the channel role table.
func (r *Replica) Said(chat *ChatMessage) {
	var roles map[string]RoleFlags
	if ch, ok := r.channels[chat.ChannelID]; ok {
		roles = ch.Users
	}

	if chat.Type == "" {
		chat.Type = TypeStandard
	}
	chat.Text = r.normalize(chat.Content)

	user, ok := r.users[chat.Username]
	if !ok {
		return
	}
	chat.Nickname = user.Nickname
	chat.FullName = user.FullName
	chat.IsAdmin = user.Privileges.Admin()
	if !chat.IsAdmin && roles[chat.Username].Admin() {
		// channel admin, not a full server admin
		chat.IsAdmin = true
	}
}

// UserUpdated field-merges an update into the global user table,
// creating the record if needed. An update for our own username also
// merges into the own-user record.
func (r *Replica) UserUpdated(up UserUpdate) {
	if up.Username == nil || *up.Username == "" {
		return
	}
	username := *up.Username

	if username == r.username {
		r.self.Apply(up)
	}

	u := r.users[username]
	u.Apply(up)
	r.users[username] = u
}

// ChannelUpdated field-merges an update into a channel, creating it if
// absent. A merged record carrying the deleted marker is removed from
// the replica. It reports whether a join request should be issued: the
// merged record is a direct-message channel with no active UI context
// (a server-initiated DM invitation).
func (r *Replica) ChannelUpdated(channelID string, up ChannelUpdate) bool {
	ch := r.ensureChannel(channelID)
	ch.Apply(up)

	if ch.Deleted {
		delete(r.channels, channelID)
		return false
	}
	return ch.PM && !ch.UI
}

// Username returns the canonical username from the last login.
func (r *Replica) Username() string {
	return r.username
}

// Self returns a copy of the own-user record.
func (r *Replica) Self() User {
	return r.self.Clone()
}

// User returns a copy of the named user record.
func (r *Replica) User(username string) (User, bool) {
	u, ok := r.users[username]
	return u.Clone(), ok
}

// Channel returns a copy of the channel record.
func (r *Replica) Channel(id string) (Channel, bool) {
	ch, ok := r.channels[id]
	if !ok {
		return Channel{}, false
	}
	return ch.Clone(), true
}

// Channels returns a copy of the channel table.
func (r *Replica) Channels() map[string]Channel {
	out := make(map[string]Channel, len(r.channels))
	for id, ch := range r.channels {
		out[id] = ch.Clone()
	}
	return out
}

// PMChannels lists ids of direct-message channels, for rejoin after a
// session resume.
func (r *Replica) PMChannels() []string {
	var ids []string
	for id, ch := range r.channels {
		if ch.PM {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Replica) ensureChannel(id string) *Channel {
	ch, ok := r.channels[id]
	if !ok {
		ch = &Channel{ID: id}
		r.channels[id] = ch
	}
	return ch
}
