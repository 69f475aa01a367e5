package keylock

import (
	"context"
	"fmt"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker hands out mutual exclusion per key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// ThreadTurnKey serialises turns per backend thread. Chats of one owner and
// persona share a thread, and the backend rejects messages during a run.
func ThreadTurnKey(threadId string) string {
	return "thread-turn:" + threadId
}

func ChatCreateKey(ownerKey, modeId string) string {
	return fmt.Sprintf("chat-create:%s:%s", ownerKey, modeId)
}
