package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/user"
)

func TestPerson(t *testing.T) {
	ana := user.User{ID: 7, Email: "ana@parroquia.co"}
	err := errors.New("boom")

	usr, rest := person([]interface{}{err, ana, &user.User{Email: "otro@parroquia.co"}})
	if assert.NotNil(t, usr) {
		assert.Equal(t, "ana@parroquia.co", usr.Email)
	}
	assert.Equal(t, []interface{}{err}, rest)

	usr, rest = person(nil)
	assert.Nil(t, usr)
	assert.Empty(t, rest)
}

func TestRollbarLogger_mirrorsToStd(t *testing.T) {
	var buf bytes.Buffer
	conf := core.NewTestConfig()
	logger := NewRollbarLogger(log.New(&buf, "", 0), conf)

	logger.Debug("hidden")
	logger.Warn("slow backend", map[string]interface{}{"path": "/mass-schedule/availability"}, user.User{Email: "ana@parroquia.co"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "slow backend")
	assert.Contains(t, out, "/mass-schedule/availability")
	assert.NotContains(t, out, "ana@parroquia.co")
}
