package state

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustUserUpdate(t *testing.T, raw string) UserUpdate {
	t.Helper()
	var up UserUpdate
	if err := json.Unmarshal([]byte(raw), &up); err != nil {
		t.Fatalf("unmarshal user update: %v", err)
	}
	return up
}

func mustChannelUpdate(t *testing.T, raw string) ChannelUpdate {
	t.Helper()
	var up ChannelUpdate
	if err := json.Unmarshal([]byte(raw), &up); err != nil {
		t.Fatalf("unmarshal channel update: %v", err)
	}
	return up
}

func TestMergeChannels_Idempotent(t *testing.T) {
	payload := map[string]ChannelUpdate{
		"lobby": mustChannelUpdate(t, `{"title":"Lobby","pm":0,"users":{"alice":{"admin":1}}}`),
		"dev":   mustChannelUpdate(t, `{"title":"Dev","topic":"builds"}`),
	}

	r := NewReplica(nil)
	r.MergeChannels(payload)
	once := r.Channels()

	r.MergeChannels(payload)
	twice := r.Channels()

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge is not idempotent:\nfirst:  %+v\nsecond: %+v", once, twice)
	}
}

func TestMergeChannels_PreservesUnspecifiedFields(t *testing.T) {
	r := NewReplica(nil)
	r.MergeChannels(map[string]ChannelUpdate{
		"lobby": mustChannelUpdate(t, `{"title":"Lobby","topic":"welcome"}`),
	})

	// A relog payload without a topic must keep the existing one but
	// take the new title.
	r.MergeChannels(map[string]ChannelUpdate{
		"lobby": mustChannelUpdate(t, `{"title":"The Lobby"}`),
	})

	ch, ok := r.Channel("lobby")
	if !ok {
		t.Fatal("lobby missing after merge")
	}
	if ch.Title != "The Lobby" || ch.Topic != "welcome" {
		t.Fatalf("unexpected channel after merge: %+v", ch)
	}
}

func TestJoined_UnknownChannelIsNoop(t *testing.T) {
	r := NewReplica(nil)
	r.Joined("nowhere", "alice", mustUserUpdate(t, `{"username":"alice"}`))

	if chans := r.Channels(); len(chans) != 0 {
		t.Fatalf("replica changed by joined for unknown channel: %+v", chans)
	}
}

func TestWelcomeThenJoinedAndLeft(t *testing.T) {
	r := NewReplica(nil)
	r.Welcome("lobby", mustChannelUpdate(t, `{"title":"Lobby","history":[{"content":"old"}]}`))

	ch, _ := r.Channel("lobby")
	if !ch.UI {
		t.Fatal("welcome did not set ui")
	}
	if ch.History != nil {
		t.Fatal("welcome did not release history")
	}

	r.Joined("lobby", "", mustUserUpdate(t, `{"username":"alice"}`))
	r.Joined("lobby", "bob", UserUpdate{})

	ch, _ = r.Channel("lobby")
	if len(ch.LiveUsers) != 2 {
		t.Fatalf("expected two live users, got %+v", ch.LiveUsers)
	}
	if !bool(ch.LiveUsers["alice"].Live) {
		t.Fatalf("alice not live: %+v", ch.LiveUsers)
	}

	r.Left("lobby", "alice")
	ch, _ = r.Channel("lobby")
	if _, ok := ch.LiveUsers["alice"]; ok {
		t.Fatal("alice still live after left")
	}
	if _, ok := ch.LiveUsers["bob"]; !ok {
		t.Fatal("bob dropped by alice leaving")
	}
}

func TestGoodbye_ClearsAndReportsKick(t *testing.T) {
	r := NewReplica(nil)
	r.Welcome("lobby", ChannelUpdate{})
	r.Joined("lobby", "alice", UserUpdate{})

	if kicked := r.Goodbye("lobby", "self"); kicked {
		t.Fatal("leaving on our own reported as a kick")
	}
	ch, _ := r.Channel("lobby")
	if ch.UI || ch.LiveUsers != nil {
		t.Fatalf("goodbye did not clear channel: %+v", ch)
	}

	r.Welcome("lobby", ChannelUpdate{})
	for _, reason := range []string{ReasonPrivate, ReasonDelete, ReasonKick} {
		if kicked := r.Goodbye("lobby", reason); !kicked {
			t.Fatalf("reason %q not reported", reason)
		}
	}

	if kicked := r.Goodbye("nowhere", ReasonKick); kicked {
		t.Fatal("goodbye for unknown channel reported a kick")
	}
}

func TestSaid_EnrichmentAndAdminRule(t *testing.T) {
	r := NewReplica(func(s string) string { return "plain:" + s })
	r.SetUsers(map[string]UserUpdate{
		"alice": mustUserUpdate(t, `{"username":"alice","nickname":"Al","full_name":"Alice A","privileges":{"admin":0}}`),
		"root":  mustUserUpdate(t, `{"username":"root","privileges":{"admin":1}}`),
	})
	r.MergeChannels(map[string]ChannelUpdate{
		"lobby": mustChannelUpdate(t, `{"users":{"alice":{"admin":1}}}`),
	})

	// Channel-scoped admin role counts in that channel.
	chat := ChatMessage{ChannelID: "lobby", Username: "alice", Content: "<b>hi</b>"}
	r.Said(&chat)
	if chat.Type != TypeStandard {
		t.Fatalf("type not defaulted: %q", chat.Type)
	}
	if chat.Text != "plain:<b>hi</b>" {
		t.Fatalf("text not derived: %q", chat.Text)
	}
	if chat.Nickname != "Al" || chat.FullName != "Alice A" {
		t.Fatalf("user fields not copied: %+v", chat)
	}
	if !chat.IsAdmin {
		t.Fatal("channel admin role ignored")
	}

	// Same user outside that channel is no admin.
	chat = ChatMessage{ChannelID: "dev", Username: "alice", Content: "x"}
	r.Said(&chat)
	if chat.IsAdmin {
		t.Fatal("channel role leaked into another channel")
	}

	// Global admin privilege counts everywhere.
	chat = ChatMessage{ChannelID: "dev", Username: "root", Content: "x"}
	r.Said(&chat)
	if !chat.IsAdmin {
		t.Fatal("global admin privilege ignored")
	}

	// Unknown sender: type and text still derived, no enrichment.
	chat = ChatMessage{ChannelID: "lobby", Username: "ghost", Content: "x"}
	r.Said(&chat)
	if chat.Nickname != "" || chat.IsAdmin {
		t.Fatalf("unexpected enrichment for unknown sender: %+v", chat)
	}
}

func TestUserUpdated_FieldMerge(t *testing.T) {
	r := NewReplica(nil)
	r.SetIdentity("bot", mustUserUpdate(t, `{"username":"bot","nickname":"Bot"}`))
	r.SetUsers(map[string]UserUpdate{
		"alice": mustUserUpdate(t, `{"username":"alice","nickname":"Al","full_name":"Alice A"}`),
	})

	r.UserUpdated(mustUserUpdate(t, `{"username":"alice","nickname":"Ally"}`))

	u, ok := r.User("alice")
	if !ok {
		t.Fatal("alice missing")
	}
	if u.Nickname != "Ally" || u.FullName != "Alice A" {
		t.Fatalf("partial update corrupted record: %+v", u)
	}

	// An update for our own username also lands on the own record.
	r.UserUpdated(mustUserUpdate(t, `{"username":"bot","full_name":"The Bot"}`))
	if self := r.Self(); self.Nickname != "Bot" || self.FullName != "The Bot" {
		t.Fatalf("own record not merged: %+v", self)
	}

	// Updates can create users we have never seen.
	r.UserUpdated(mustUserUpdate(t, `{"username":"carol","nickname":"C"}`))
	if _, ok := r.User("carol"); !ok {
		t.Fatal("update did not create carol")
	}
}

func TestChannelUpdated_DeleteRemovesChannel(t *testing.T) {
	r := NewReplica(nil)
	r.MergeChannels(map[string]ChannelUpdate{
		"lobby": mustChannelUpdate(t, `{"title":"Lobby"}`),
	})

	r.ChannelUpdated("lobby", mustChannelUpdate(t, `{"deleted":true}`))

	if _, ok := r.Channel("lobby"); ok {
		t.Fatal("deleted channel still present")
	}
}

func TestChannelUpdated_PMInviteNeedsJoin(t *testing.T) {
	r := NewReplica(nil)

	// Server-initiated DM invitation: unknown pm channel, no ui yet.
	if join := r.ChannelUpdated("dm-1", mustChannelUpdate(t, `{"pm":1,"users":{"bot":{},"alice":{}}}`)); !join {
		t.Fatal("pm channel without ui did not request a join")
	}

	// Once the UI context exists no further join is requested.
	r.Welcome("dm-1", ChannelUpdate{})
	if join := r.ChannelUpdated("dm-1", mustChannelUpdate(t, `{"title":"Alice"}`)); join {
		t.Fatal("pm channel with ui requested a join")
	}

	// Non-pm updates never request a join.
	if join := r.ChannelUpdated("lobby", mustChannelUpdate(t, `{"title":"Lobby"}`)); join {
		t.Fatal("plain channel requested a join")
	}
}

func TestPMChannels(t *testing.T) {
	r := NewReplica(nil)
	r.MergeChannels(map[string]ChannelUpdate{
		"lobby": mustChannelUpdate(t, `{"pm":false}`),
		"dm-1":  mustChannelUpdate(t, `{"pm":1}`),
	})

	pms := r.PMChannels()
	if len(pms) != 1 || pms[0] != "dm-1" {
		t.Fatalf("unexpected pm channels: %v", pms)
	}
}

func TestUserUpdate_KeepsUnknownFields(t *testing.T) {
	r := NewReplica(nil)
	r.SetUsers(map[string]UserUpdate{
		"alice": mustUserUpdate(t, `{"username":"alice","avatar":"a.png"}`),
	})
	r.UserUpdated(mustUserUpdate(t, `{"username":"alice","nickname":"Al"}`))

	u, _ := r.User("alice")
	raw, ok := u.Extra["avatar"]
	if !ok {
		t.Fatalf("protocol field dropped by merge: %+v", u)
	}
	var avatar string
	if err := json.Unmarshal(raw, &avatar); err != nil || avatar != "a.png" {
		t.Fatalf("avatar corrupted: %s", raw)
	}
}
