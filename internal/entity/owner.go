package entity

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidOwner is returned when a chat has both or neither owner field set.
var ErrInvalidOwner = errors.New("chat owner must be exactly one of user or session")

type OwnerKind int

const (
	OwnerKindNone OwnerKind = iota
	OwnerKindUser
	OwnerKindAnonymous
)

// Owner is the identity a chat belongs to: a registered user or an anonymous
// browser session. The zero value is no owner at all.
type Owner struct {
	kind       OwnerKind
	userId     uint64
	sessionKey string
}

func UserOwner(userId uint64) Owner {
	return Owner{kind: OwnerKindUser, userId: userId}
}

func AnonymousOwner(sessionKey string) Owner {
	return Owner{kind: OwnerKindAnonymous, sessionKey: sessionKey}
}

// OwnerFromColumns rebuilds an Owner from the nullable storage columns.
func OwnerFromColumns(userId *uint64, sessionKey *string) (Owner, error) {
	hasUser := userId != nil
	hasSession := sessionKey != nil && *sessionKey != ""
	switch {
	case hasUser && !hasSession:
		return UserOwner(*userId), nil
	case hasSession && !hasUser:
		return AnonymousOwner(*sessionKey), nil
	default:
		return Owner{}, ErrInvalidOwner
	}
}

func (o Owner) Kind() OwnerKind { return o.kind }

func (o Owner) IsUser() bool { return o.kind == OwnerKindUser }

func (o Owner) IsAnonymous() bool { return o.kind == OwnerKindAnonymous }

func (o Owner) UserId() (uint64, bool) {
	return o.userId, o.kind == OwnerKindUser
}

func (o Owner) SessionKey() (string, bool) {
	return o.sessionKey, o.kind == OwnerKindAnonymous
}

// Columns returns the nullable (user_id, session_key) pair for storage.
func (o Owner) Columns() (*uint64, *string) {
	switch o.kind {
	case OwnerKindUser:
		id := o.userId
		return &id, nil
	case OwnerKindAnonymous:
		key := o.sessionKey
		return nil, &key
	default:
		return nil, nil
	}
}

func (o Owner) Validate() error {
	switch o.kind {
	case OwnerKindUser:
		return nil
	case OwnerKindAnonymous:
		if o.sessionKey == "" {
			return ErrInvalidOwner
		}
		return nil
	default:
		return ErrInvalidOwner
	}
}

// Equal compares kind and value, so a user never matches a session.
func (o Owner) Equal(other Owner) bool {
	if o.kind != other.kind {
		return false
	}
	switch o.kind {
	case OwnerKindUser:
		return o.userId == other.userId
	case OwnerKindAnonymous:
		return o.sessionKey == other.sessionKey
	default:
		return false
	}
}

// Key is a stable string form used for lock keys and logs.
func (o Owner) Key() string {
	switch o.kind {
	case OwnerKindUser:
		return "user:" + strconv.FormatUint(o.userId, 10)
	case OwnerKindAnonymous:
		return "session:" + o.sessionKey
	default:
		return "none"
	}
}

func (o Owner) String() string {
	switch o.kind {
	case OwnerKindUser:
		return fmt.Sprintf("User(%d)", o.userId)
	case OwnerKindAnonymous:
		short := o.sessionKey
		if len(short) > 8 {
			short = short[:8] + "..."
		}
		return fmt.Sprintf("AnonymousSession(%s)", short)
	default:
		return "NoOwner"
	}
}
