package session_test

import (
	"sync"
	"testing"

	"github.com/adwski/matchroom/backend/model"
	"github.com/adwski/matchroom/backend/session"
	"github.com/stretchr/testify/assert"
)

func TestSession_Participant(t *testing.T) {
	sess := session.New("conn-1", model.NewWire(1))
	assert.Equal(t, model.Participant{ConnectionID: "conn-1"}, sess.Participant())

	sess.SetDisplayName("alice")
	assert.Equal(t, model.Participant{ConnectionID: "conn-1", DisplayName: "alice"}, sess.Participant())
}

func TestSession_ConcurrentNameAccess(t *testing.T) {
	sess := session.New("conn-1", model.NewWire(1))
	wg := &sync.WaitGroup{}
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sess.SetDisplayName("bob")
		}()
		go func() {
			defer wg.Done()
			_ = sess.Participant()
		}()
	}
	wg.Wait()
	assert.Equal(t, "bob", sess.DisplayName())
}
